package rtable

// Sink accumulates the results of Reader.Get.
type Sink interface {
	// Offer is called for every candidate record. Returning false stops the
	// scan. key and value must be copied if retained.
	Offer(key, value []byte) bool
}

// SinkFunc is an adapter to allow the use of ordinary functions as sinks.
type SinkFunc func(key, value []byte) bool

// Offer calls fn(key, value).
func (fn SinkFunc) Offer(key, value []byte) bool { return fn(key, value) }

// Collector is a Sink which gathers the values of a single user key. It
// stops at the first record of another user key or at a deletion tombstone.
type Collector struct {
	UserKey []byte
	Values  [][]byte // copies of the collected values, most recent first
	Deleted bool     // true if the scan ended on a tombstone

	cmp   Comparer
	limit int
}

// NewCollector creates a collector for userKey. The user key order defaults
// to BytewiseComparer. A positive limit stops collection once that many
// values have been gathered.
func NewCollector(userKey []byte, cmp Comparer, limit int) *Collector {
	if cmp == nil {
		cmp = BytewiseComparer
	}
	return &Collector{UserKey: userKey, cmp: cmp, limit: limit}
}

// Offer implements Sink.
func (c *Collector) Offer(key, value []byte) bool {
	ik, err := ParseInternalKey(key)
	if err != nil || c.cmp.Compare(ik.UserKey, c.UserKey) != 0 {
		return false
	}

	if ik.Kind() == KindDelete {
		c.Deleted = true
		return false
	}

	c.Values = append(c.Values, append([]byte(nil), value...))
	return c.limit < 1 || len(c.Values) < c.limit
}
