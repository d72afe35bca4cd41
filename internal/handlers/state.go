package handlers

import (
	"sysprog-lab/internal/jobs"
	"sysprog-lab/internal/sortservice"
	"sysprog-lab/internal/tpool"
	"sysprog-lab/internal/ufs"
)

var (
	fsys   *ufs.FileSystem
	pool   *tpool.Pool
	jobman *jobs.Manager
)

// Init wires the shared core instances that the fs/pool/sort handlers
// operate on. Called once through router.Init (from cmd/server/main.go)
// before the server starts accepting connections. s is accepted (and not stored) so the
// signature matches what router.Init already has on hand; every sort
// operation goes through jobman, which owns its own *sortservice.Service.
func Init(f *ufs.FileSystem, p *tpool.Pool, s *sortservice.Service, j *jobs.Manager) {
	fsys = f
	pool = p
	jobman = j
}
