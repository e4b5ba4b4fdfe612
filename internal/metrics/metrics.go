// Package metrics exposes Prometheus metrics for paginated endpoints.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/felixheck/bissle/paging"
)

var (
	PagesServedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bissle_pages_served_total",
		Help: "Paginated responses served, by route id.",
	}, []string{"route"})

	OutOfRangePagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bissle_out_of_range_pages_total",
		Help: "Requests for a page past the last one, by route id.",
	}, []string{"route"})

	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bissle_rejections_total",
		Help: "Paginated requests rejected, by error code.",
	}, []string{"code"})

	PageSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bissle_page_size",
		Help:    "Requested entries per page.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})

	ItemsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bissle_items_created_total",
		Help: "Items created through the API.",
	})
)

// Observer records paginator events.
type Observer struct{}

// Served counts a paginated response.
func (Observer) Served(routeID string, st paging.PageState) {
	PagesServedTotal.WithLabelValues(routeID).Inc()
	PageSize.Observe(float64(st.PerPage))
	if st.Page > st.LastPage {
		OutOfRangePagesTotal.WithLabelValues(routeID).Inc()
	}
}

// Rejected counts a rejected request.
func (Observer) Rejected(err error) {
	RejectionsTotal.WithLabelValues(paging.Code(err)).Inc()
}
