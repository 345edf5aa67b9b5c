package multimap

import (
	"github.com/prometheus/client_golang/prometheus"
)

const promNamespace = "multimap"

// StatsProvider is implemented by every MultiMap instantiation.
type StatsProvider interface {
	Stats() *MapStats
}

var _ StatsProvider = (*MultiMap[string, string])(nil)

// NewCollector returns a prometheus.Collector exporting the statistics of m,
// labelled with map=name. Collection calls m.Stats(), which walks the whole
// table under the read lock; keep scrape intervals reasonable for large maps.
func NewCollector(name string, m StatsProvider) prometheus.Collector {
	labels := prometheus.Labels{"map": name}
	newDesc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(promNamespace, "", metric), help, nil, labels)
	}
	return &collector{
		m:            m,
		descKeys:     newDesc("keys", "Number of distinct keys"),
		descValues:   newDesc("values", "Number of values across all keys"),
		descBuckets:  newDesc("buckets", "Number of buckets in the table"),
		descEmpty:    newDesc("empty_buckets", "Number of buckets holding no keys"),
		descMaxChain: newDesc("max_chain_length", "Largest number of keys in a single bucket"),
		descLoad:     newDesc("load_factor", "Distinct keys per bucket"),
		descGrowths:  newDesc("growths_total", "Number of times the table doubled"),
	}
}

var _ prometheus.Collector = (*collector)(nil)

type collector struct {
	m StatsProvider

	descKeys     *prometheus.Desc
	descValues   *prometheus.Desc
	descBuckets  *prometheus.Desc
	descEmpty    *prometheus.Desc
	descMaxChain *prometheus.Desc
	descLoad     *prometheus.Desc
	descGrowths  *prometheus.Desc
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	s := c.m.Stats()
	ch <- prometheus.MustNewConstMetric(c.descKeys, prometheus.GaugeValue, float64(s.Keys))
	ch <- prometheus.MustNewConstMetric(c.descValues, prometheus.GaugeValue, float64(s.Values))
	ch <- prometheus.MustNewConstMetric(c.descBuckets, prometheus.GaugeValue, float64(s.Buckets))
	ch <- prometheus.MustNewConstMetric(c.descEmpty, prometheus.GaugeValue, float64(s.EmptyBuckets))
	ch <- prometheus.MustNewConstMetric(c.descMaxChain, prometheus.GaugeValue, float64(s.MaxEntries))
	ch <- prometheus.MustNewConstMetric(c.descLoad, prometheus.GaugeValue, s.LoadFactor)
	ch <- prometheus.MustNewConstMetric(c.descGrowths, prometheus.CounterValue, float64(s.TotalGrowths))
}
