package metric

import "github.com/prometheus/client_golang/prometheus"

// Sizer reports a current entry count. *service.NonceStore implements it.
type Sizer interface {
	Len() int
}

// NonceCollector exports the nonce store size, read at scrape time.
type NonceCollector struct {
	store Sizer
	desc  *prometheus.Desc
}

// NewNonceCollector creates a collector over store.
func NewNonceCollector(store Sizer) *NonceCollector {
	return &NonceCollector{
		store: store,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "nonce_store", "entries"),
			"Live entries in the replay nonce store, including expired ones not yet purged.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *NonceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *NonceCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(c.store.Len()))
}
