package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sysprog-lab/internal/jobs"
	"sysprog-lab/internal/obslog"
	"sysprog-lab/internal/router"
	"sysprog-lab/internal/server"
	"sysprog-lab/internal/sortservice"
	"sysprog-lab/internal/tpool"
	"sysprog-lab/internal/ufs"
)

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getenvDur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func main() {
	log := obslog.New("main")

	fsys := ufs.New()
	pool, err := tpool.New(getenvInt("POOL_MAX_WORKERS", 8))
	if err != nil {
		log.Fatal().Err(err).Log("invalid POOL_MAX_WORKERS")
	}
	svc := sortservice.New(fsys, pool)
	jobman := jobs.NewManager(svc, getenvDur("JOBS_TTL", 10*time.Minute))

	router.Init(fsys, pool, svc, jobman)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		router.Close()
		os.Exit(0)
	}()

	addr := ":8080"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}
	log.Info().Str("addr", addr).Log("HTTP/1.0 server starting")
	if err := server.ListenAndServe(addr); err != nil {
		log.Fatal().Err(err).Log("listen failed")
	}
}
