package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, policy DecodePolicy, stores ...Store) *Registry {
	t.Helper()
	reg := NewRegistry(policy)
	dir := t.TempDir()
	for _, s := range stores {
		conn, err := Open(filepath.Join(dir, string(s)+".db"))
		require.NoError(t, err)
		reg.Register(s, conn)
	}
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestRegistry_WithReturnsFnError(t *testing.T) {
	reg := newTestRegistry(t, DecodeSkip, Songs)
	want := errors.New("boom")

	err := reg.With(Songs, func(*sqlx.DB) error { return want })
	assert.ErrorIs(t, err, want)

	// Lock was released.
	assert.NoError(t, reg.With(Songs, func(*sqlx.DB) error { return nil }))
}

func TestRegistry_UnknownStore(t *testing.T) {
	reg := newTestRegistry(t, DecodeSkip)
	err := reg.With(Bible, func(*sqlx.DB) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownStore)
}

func TestRegistry_CloseWhileInUse(t *testing.T) {
	reg := NewRegistry(DecodeSkip)
	conn, err := Open(filepath.Join(t.TempDir(), "songs.db"))
	require.NoError(t, err)
	reg.Register(Songs, conn)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 8; j++ {
				errs <- reg.With(Songs, func(db *sqlx.DB) error {
					var n int
					return db.Get(&n, "SELECT 1")
				})
			}
		}()
	}
	require.NoError(t, reg.Close())
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			assert.True(t, errors.Is(err, ErrUnknownStore) || errors.Is(err, ErrClosed), err.Error())
		}
	}
	assert.ErrorIs(t, reg.With(Songs, func(*sqlx.DB) error { return nil }), ErrUnknownStore)
	assert.NoError(t, reg.Close())
}

func TestRegistry_PanicPoisonsStore(t *testing.T) {
	reg := newTestRegistry(t, DecodeSkip, Songs, Multimedia)

	err := reg.With(Songs, func(*sqlx.DB) error { panic("mid-query") })
	var cerr *ConcurrencyError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, Songs, cerr.Store)
	assert.ErrorIs(t, err, ErrPoisoned)

	called := false
	err = reg.With(Songs, func(*sqlx.DB) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrPoisoned)
	assert.False(t, called)

	// Other stores are unaffected.
	assert.NoError(t, reg.With(Multimedia, func(*sqlx.DB) error { return nil }))

	reg.Heal(Songs)
	assert.NoError(t, reg.With(Songs, func(*sqlx.DB) error { return nil }))
}

func TestRegistry_SerializesSameStore(t *testing.T) {
	reg := newTestRegistry(t, DecodeSkip, Songs)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = reg.With(Songs, func(db *sqlx.DB) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				var one int
				err := db.Get(&one, "SELECT 1")

				mu.Lock()
				inside--
				mu.Unlock()
				return err
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestCollect_DecodePolicy(t *testing.T) {
	reg := newTestRegistry(t, DecodeSkip, Songs)

	type row struct {
		ID    int64  `db:"id"`
		Title string `db:"title"`
	}

	require.NoError(t, reg.With(Songs, func(db *sqlx.DB) error {
		_, err := db.Exec(`
			CREATE TABLE legacy (id INTEGER PRIMARY KEY, title TEXT);
			INSERT INTO legacy (id, title) VALUES (1, 'ok'), (2, NULL), (3, 'also ok');`)
		return err
	}))

	list := func(policy DecodePolicy) ([]row, error) {
		var out []row
		err := reg.With(Songs, func(db *sqlx.DB) error {
			rows, err := db.Queryx("SELECT id, title FROM legacy ORDER BY id")
			if err != nil {
				return err
			}
			out, err = Collect[row](rows, policy)
			return err
		})
		return out, err
	}

	got, err := list(DecodeSkip)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)

	_, err = list(DecodeStrict)
	assert.Error(t, err)
}

func TestCollect_Scalars(t *testing.T) {
	reg := newTestRegistry(t, DecodeSkip, Songs)
	require.NoError(t, reg.With(Songs, func(db *sqlx.DB) error {
		_, err := db.Exec(`
			CREATE TABLE names (id INTEGER PRIMARY KEY, name TEXT);
			INSERT INTO names (id, name) VALUES (1, 'KJV'), (2, NULL), (3, 'RVR1960');`)
		return err
	}))

	var (
		names    []string
		nullable []sql.NullString
	)
	err := reg.With(Songs, func(db *sqlx.DB) error {
		rows, err := db.Queryx("SELECT name FROM names ORDER BY id")
		if err != nil {
			return err
		}
		if names, err = Collect[string](rows, DecodeSkip); err != nil {
			return err
		}

		rows, err = db.Queryx("SELECT name FROM names ORDER BY id")
		if err != nil {
			return err
		}
		nullable, err = Collect[sql.NullString](rows, DecodeStrict)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"KJV", "RVR1960"}, names)
	require.Len(t, nullable, 3)
	assert.False(t, nullable[1].Valid)
}

func TestParseDecodePolicy(t *testing.T) {
	p, err := ParseDecodePolicy("STRICT")
	require.NoError(t, err)
	assert.Equal(t, DecodeStrict, p)

	p, err = ParseDecodePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DecodeSkip, p)

	_, err = ParseDecodePolicy("lenient")
	assert.Error(t, err)
}
