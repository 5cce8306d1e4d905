package internal

import "math"

// UsageCounters are the persisted local query metrics. The average is a
// simple running mean over every recorded query; old samples never decay.
type UsageCounters struct {
	QueryCount    int
	LastLatencyMs int
	AvgLatencyMs  int
}

// LoadUsage reads the counters from the settings store
func LoadUsage(store Store) UsageCounters {
	return UsageCounters{
		QueryCount:    store.GetInt(KeyQueryCount, 0),
		LastLatencyMs: store.GetInt(KeyLastLatencyMs, 0),
		AvgLatencyMs:  store.GetInt(KeyAvgLatencyMs, 0),
	}
}

// SaveUsage mirrors the counters back to the settings store
func SaveUsage(store Store, u UsageCounters) error {
	if err := store.SetInt(KeyQueryCount, u.QueryCount); err != nil {
		return err
	}
	if err := store.SetInt(KeyLastLatencyMs, u.LastLatencyMs); err != nil {
		return err
	}
	return store.SetInt(KeyAvgLatencyMs, u.AvgLatencyMs)
}

// Record folds one query latency into the counters:
// avg' = round((avg*count + latency) / (count+1)), count' = count+1.
func (u *UsageCounters) Record(latencyMs int) {
	next := u.QueryCount + 1
	u.AvgLatencyMs = int(math.Round(
		(float64(u.AvgLatencyMs)*float64(u.QueryCount) + float64(latencyMs)) / float64(next),
	))
	u.LastLatencyMs = latencyMs
	u.QueryCount = next
}
