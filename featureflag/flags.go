package featureflag

type Flag string

const (
	// Draws QueryByType and FindNearest candidates from the hash grid.
	FlagCoarseCandidates Flag = "COARSE_CANDIDATES"

	FlagDisableTraffic     Flag = "DISABLE_TRAFFIC"
	FlagDisableCollisions  Flag = "DISABLE_COLLISIONS"
	FlagDisableStatsStream Flag = "DISABLE_STATS_STREAM"
	FlagDisableQueryAPI    Flag = "DISABLE_QUERY_API"
)
