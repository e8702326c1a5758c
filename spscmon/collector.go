package spscmon

import (
	"github.com/aradilov/spsc"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spsc"

// ChannelSender is the part of *spsc.Sender the collector reads.
type ChannelSender interface {
	Stats() spsc.SenderStats
	Capacity() uint64
}

// ChannelReceiver is the part of *spsc.Receiver the collector reads.
type ChannelReceiver interface {
	Stats() spsc.ReceiverStats
	Size() uint64
}

// ChannelCollector exposes the counters of one channel.
type ChannelCollector struct {
	tx ChannelSender
	rx ChannelReceiver

	sent      *prometheus.Desc
	rejected  *prometheus.Desc
	received  *prometheus.Desc
	empty     *prometheus.Desc
	occupancy *prometheus.Desc
	capacity  *prometheus.Desc
}

// NewChannelCollector creates a collector for the channel formed by tx and
// rx. name ends up in the "channel" label.
func NewChannelCollector(name string, tx ChannelSender, rx ChannelReceiver) *ChannelCollector {
	labels := prometheus.Labels{"channel": name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "channel", metric), help, nil, labels)
	}

	return &ChannelCollector{
		tx:        tx,
		rx:        rx,
		sent:      desc("sent_total", "Values accepted by TrySend."),
		rejected:  desc("rejected_total", "Values rejected by TrySend because the channel was full."),
		received:  desc("received_total", "Values returned by TryRecv."),
		empty:     desc("empty_polls_total", "TryRecv calls that found the channel empty."),
		occupancy: desc("occupancy", "Values waiting to be received."),
		capacity:  desc("capacity", "Maximum number of values the channel holds."),
	}
}

// Describe implements prometheus.Collector.
func (c *ChannelCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sent
	ch <- c.rejected
	ch <- c.received
	ch <- c.empty
	ch <- c.occupancy
	ch <- c.capacity
}

// Collect implements prometheus.Collector.
func (c *ChannelCollector) Collect(ch chan<- prometheus.Metric) {
	ts := c.tx.Stats()
	rs := c.rx.Stats()

	ch <- prometheus.MustNewConstMetric(c.sent, prometheus.CounterValue, float64(ts.Sent))
	ch <- prometheus.MustNewConstMetric(c.rejected, prometheus.CounterValue, float64(ts.Rejected))
	ch <- prometheus.MustNewConstMetric(c.received, prometheus.CounterValue, float64(rs.Received))
	ch <- prometheus.MustNewConstMetric(c.empty, prometheus.CounterValue, float64(rs.Empty))
	ch <- prometheus.MustNewConstMetric(c.occupancy, prometheus.GaugeValue, float64(c.rx.Size()))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(c.tx.Capacity()))
}

// BufferWriter is the part of *spsc.Writer the collector reads.
type BufferWriter interface {
	Stats() spsc.WriterStats
}

// BufferReader is the part of *spsc.Reader the collector reads.
type BufferReader interface {
	Stats() spsc.ReaderStats
}

// TripleBufferCollector exposes the counters of one triple buffer.
type TripleBufferCollector struct {
	w BufferWriter
	r BufferReader

	commits     *prometheus.Desc
	overwritten *prometheus.Desc
	reads       *prometheus.Desc
	claimed     *prometheus.Desc
}

// NewTripleBufferCollector creates a collector for the triple buffer formed
// by w and r. name ends up in the "buffer" label.
func NewTripleBufferCollector(name string, w BufferWriter, r BufferReader) *TripleBufferCollector {
	labels := prometheus.Labels{"buffer": name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "triple_buffer", metric), help, nil, labels)
	}

	return &TripleBufferCollector{
		w:           w,
		r:           r,
		commits:     desc("commits_total", "Values published by Write or a WriteGuard."),
		overwritten: desc("overwritten_total", "Commits that superseded a value the reader never claimed."),
		reads:       desc("reads_total", "Read calls."),
		claimed:     desc("claimed_total", "Read calls that picked up a new commit."),
	}
}

// Describe implements prometheus.Collector.
func (c *TripleBufferCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.commits
	ch <- c.overwritten
	ch <- c.reads
	ch <- c.claimed
}

// Collect implements prometheus.Collector.
func (c *TripleBufferCollector) Collect(ch chan<- prometheus.Metric) {
	ws := c.w.Stats()
	rs := c.r.Stats()

	ch <- prometheus.MustNewConstMetric(c.commits, prometheus.CounterValue, float64(ws.Commits))
	ch <- prometheus.MustNewConstMetric(c.overwritten, prometheus.CounterValue, float64(ws.Overwritten))
	ch <- prometheus.MustNewConstMetric(c.reads, prometheus.CounterValue, float64(rs.Reads))
	ch <- prometheus.MustNewConstMetric(c.claimed, prometheus.CounterValue, float64(rs.Claimed))
}
