package common

const (
	// SYNCER name to identify the chain syncers (one per configured blockchain)
	SYNCER = "syncer"
	// RPC name to identify the rpc component (implies SYNCER)
	RPC = "rpc"
	// METRICS name to identify the prometheus endpoint
	METRICS = "metrics"
)
