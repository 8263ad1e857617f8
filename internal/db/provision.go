package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	"github.com/Arbasante/proyecto-easyworship/internal/paths"
)

// ErrSeedMissing is returned when neither a writable database nor its
// bundled seed exists.
var ErrSeedMissing = errors.New("seed database not found")

// ProvisionError reports a store that could not be made available at
// startup. It is fatal: the application cannot run without the store.
type ProvisionError struct {
	Store Store
	Path  string
	Err   error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provision %s store at %s: %v", e.Store, e.Path, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// StoreSpec describes one logical database.
type StoreSpec struct {
	Store Store
	File  string
	// Migrations is empty for stores whose schema ships with the seed
	// and is never modified at runtime.
	Migrations []Migration
}

// Provisioner places writable databases in DataDir, seeding them from
// ResourceDir on first run.
type Provisioner struct {
	DataDir     string
	ResourceDir string
}

// Ensure makes the database described by spec available and returns an open
// handle. A writable file that already exists is never overwritten.
func (p *Provisioner) Ensure(ctx context.Context, spec StoreSpec) (*sqlx.DB, error) {
	target, err := paths.DatabasePath(p.DataDir, spec.File)
	if err != nil {
		return nil, &ProvisionError{Store: spec.Store, Path: filepath.Join(p.DataDir, spec.File), Err: err}
	}

	seeded, err := p.seed(spec, target)
	if err != nil {
		return nil, err
	}

	conn, err := Open(target)
	if err != nil {
		return nil, &ProvisionError{Store: spec.Store, Path: target, Err: err}
	}

	if len(spec.Migrations) > 0 {
		if err := Migrate(ctx, conn, spec.Migrations); err != nil {
			conn.Close()
			return nil, &ProvisionError{Store: spec.Store, Path: target, Err: err}
		}
	}

	slog.Info("store ready", "store", spec.Store, "path", target, "seeded", seeded)
	return conn, nil
}

// EnsureAll provisions every spec and registers it with reg. On failure the
// stores opened so far are closed.
func (p *Provisioner) EnsureAll(ctx context.Context, reg *Registry, specs []StoreSpec) error {
	opened := make([]Store, 0, len(specs))
	for _, spec := range specs {
		conn, err := p.Ensure(ctx, spec)
		if err != nil {
			for _, s := range opened {
				reg.close(s)
			}
			return err
		}
		reg.Register(spec.Store, conn)
		opened = append(opened, spec.Store)
	}
	return nil
}

// seed copies the bundled seed to target when target does not exist yet.
// It reports whether a copy happened.
func (p *Provisioner) seed(spec StoreSpec, target string) (bool, error) {
	_, err := os.Stat(target)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, &ProvisionError{Store: spec.Store, Path: target, Err: err}
	}

	src := filepath.Join(p.ResourceDir, spec.File)
	if err := copyFile(src, target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrSeedMissing, src)
		}
		return false, &ProvisionError{Store: spec.Store, Path: target, Err: err}
	}

	slog.Info("seeded store from bundled copy", "store", spec.Store, "seed", src, "target", target)
	return true, nil
}

// copyFile writes src into a temporary sibling of dst and renames it into
// place, so dst is either absent or complete.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".seed-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copy seed: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}
