// Package heartbeat provides a tick worker that publishes process liveness
// to Redis.
//
// Each instance adds its id to a shared set and refreshes its own key with
// a TTL. Instances lists the ids whose key is still alive, so any process
// sharing the Redis key prefix can see its peers.
//
// Setup makes a single registration attempt. Failed attempts are retried
// from Tick after an exponential backoff, so a slow or unreachable Redis
// costs the tick thread at most one Timeout per attempt.
//
//	cfg := heartbeat.DefaultConfig()
//	cfg.Client = redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	hb, err := heartbeat.New(cfg)
//	if err != nil {
//		return err
//	}
//	th.AddWorker(tickthread.WeakRef(hb))
package heartbeat
