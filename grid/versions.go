package grid

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// VERSIONS - Named snapshots of the published schedule
// =============================================================================

// Version is a named copy of production for one (department, year).
type Version struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Entries   Entries   `json:"entries"`
}

// VersionStore reads and writes the versions document of a schedule.
type VersionStore struct {
	store Persistence
	dept  string
	year  int
	now   func() time.Time
}

// NewVersionStore binds the versions document of (dept, year).
func NewVersionStore(store Persistence, dept string, year int) *VersionStore {
	return &VersionStore{store: store, dept: dept, year: year, now: time.Now}
}

// List returns versions newest first.
func (vs *VersionStore) List(ctx context.Context) ([]Version, error) {
	var versions []Version
	if _, err := getJSON(ctx, vs.store, VersionsKey(vs.dept, vs.year), &versions); err != nil {
		return nil, err
	}
	sort.SliceStable(versions, func(i, j int) bool { return versions[i].CreatedAt.After(versions[j].CreatedAt) })
	return versions, nil
}

// Save appends a snapshot of entries under name.
func (vs *VersionStore) Save(ctx context.Context, name string, entries Entries) (Version, error) {
	var versions []Version
	if _, err := getJSON(ctx, vs.store, VersionsKey(vs.dept, vs.year), &versions); err != nil {
		return Version{}, err
	}
	v := Version{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: vs.now().UTC(),
		Entries:   entries.Clone(),
	}
	versions = append(versions, v)
	if err := putJSON(ctx, vs.store, VersionsKey(vs.dept, vs.year), versions); err != nil {
		return Version{}, err
	}
	return v, nil
}

// Get returns one version by ID.
func (vs *VersionStore) Get(ctx context.Context, id string) (Version, error) {
	versions, err := vs.List(ctx)
	if err != nil {
		return Version{}, err
	}
	for _, v := range versions {
		if v.ID == id {
			return v, nil
		}
	}
	return Version{}, ErrVersionNotFound
}
