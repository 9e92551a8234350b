package tree

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/financetree/branch"
)

// flakyPersister wraps a persister and fails saves while failSave is set.
type flakyPersister struct {
	Persister
	failSave bool
	saves    int
}

var errDiskFull = errors.New("no space left on device")

func (p *flakyPersister) Save(ctx context.Context, doc *Document) error {
	if p.failSave {
		return errDiskFull
	}
	p.saves++
	return p.Persister.Save(ctx, doc)
}

func newFileStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "directory.json")
	s := NewStore(NewFile(path))
	assert.NoError(t, s.Load(context.Background()))
	return s, path
}

func readDocument(t *testing.T, path string) *Document {
	t.Helper()
	doc, err := NewFile(path).Load(context.Background())
	assert.NoError(t, err)
	return doc
}

func TestStoreLoad(t *testing.T) {
	t.Run("CreatesDefaultDocument", func(t *testing.T) {
		s, path := newFileStore(t)

		data, err := os.ReadFile(path)
		assert.NoError(t, err)
		assert.Equal(t, "{\n  \"HOME\": {}\n}\n", string(data))
		assert.Equal(t, 1, s.Tree().Len())
	})

	t.Run("ReadsExistingDocument", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "directory.json")
		assert.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

		s := NewStore(NewFile(path))
		assert.NoError(t, s.Load(context.Background()))
		assert.Equal(t, 7, s.Tree().Len())

		children, err := s.Children(s.Tree().Root())
		assert.NoError(t, err)
		var names []string
		for _, c := range children {
			names = append(names, c.Name)
		}
		assert.Equal(t, []string{"Food", "Rent", "FoodTruck"}, names)
	})

	t.Run("CorruptDocumentIsPersistenceFailure", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "directory.json")
		assert.NoError(t, os.WriteFile(path, []byte(`{"HOME": {"Food": []}}`), 0o644))

		err := NewStore(NewFile(path)).Load(context.Background())
		assert.True(t, errors.Is(err, branch.ErrPersistence))
	})

	t.Run("UnloadedStore", func(t *testing.T) {
		s := NewStore(NewFile(filepath.Join(t.TempDir(), "x.json")))
		assert.False(t, s.Loaded())
		_, err := s.Lookup(branch.RootPath())
		assert.Error(t, err)
	})
}

func TestStoreCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("PersistsAtNestedLocation", func(t *testing.T) {
		s, path := newFileStore(t)
		root := s.Tree().Root()

		food, err := s.Create(ctx, root, "Food")
		assert.NoError(t, err)
		assert.Equal(t, "HOME/Food", food.Path.String())

		snacks, err := s.Create(ctx, food.ID, "Snacks")
		assert.NoError(t, err)
		assert.Equal(t, "HOME/Food/Snacks", snacks.Path.String())

		_, err = s.Create(ctx, root, "Rent")
		assert.NoError(t, err)

		onDisk := readDocument(t, path)
		assert.True(t, onDisk.Equal(s.Tree().Document()))
		at, ok := onDisk.At(branch.MustParse("HOME/Food"))
		assert.True(t, ok)
		assert.Equal(t, []string{"Snacks"}, at.Names())
	})

	t.Run("DuplicateLeavesTreeUnchanged", func(t *testing.T) {
		s, path := newFileStore(t)
		root := s.Tree().Root()
		_, err := s.Create(ctx, root, "Food")
		assert.NoError(t, err)
		before := readDocument(t, path)

		_, err = s.Create(ctx, root, "Food")
		assert.True(t, errors.Is(err, branch.ErrAlreadyExists))
		_, err = s.Create(ctx, root, "home")
		assert.True(t, errors.Is(err, branch.ErrInvalidName))

		assert.Equal(t, 2, s.Tree().Len())
		assert.True(t, before.Equal(readDocument(t, path)))
	})

	t.Run("SaveFailureRollsBack", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "directory.json")
		p := &flakyPersister{Persister: NewFile(path)}
		s := NewStore(p)
		assert.NoError(t, s.Load(ctx))

		p.failSave = true
		_, err := s.Create(ctx, s.Tree().Root(), "Food")
		assert.True(t, errors.Is(err, branch.ErrPersistence))
		assert.True(t, errors.Is(err, errDiskFull))

		_, err = s.Lookup(branch.MustParse("HOME/Food"))
		assert.True(t, errors.Is(err, branch.ErrNotFound))
		assert.True(t, s.Document().Equal(DefaultDocument()))

		p.failSave = false
		_, err = s.Create(ctx, s.Tree().Root(), "Food")
		assert.NoError(t, err)
	})
}

func TestStageLockstep(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "directory.json")
	assert.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))
	s := NewStore(NewFile(path))
	assert.NoError(t, s.Load(ctx))
	root := s.Tree().Root()

	t.Run("Rename", func(t *testing.T) {
		st, err := s.Stage()
		assert.NoError(t, err)
		_, err = st.Rename(root, "Food", "Groceries")
		assert.NoError(t, err)

		// live tree untouched until commit
		_, err = s.Lookup(branch.MustParse("HOME/Food/Drinks"))
		assert.NoError(t, err)

		assert.NoError(t, s.Commit(ctx, st))
		b, err := s.Lookup(branch.MustParse("HOME/Groceries/Drinks/Coffee"))
		assert.NoError(t, err)
		assert.Equal(t, "Coffee", b.Name)

		onDisk := readDocument(t, path)
		assert.True(t, onDisk.Equal(s.Tree().Document()))
		home, _ := onDisk.Get(branch.Root)
		assert.Equal(t, []string{"Groceries", "Rent", "FoodTruck"}, home.Names())
	})

	t.Run("Remove", func(t *testing.T) {
		st, err := s.Stage()
		assert.NoError(t, err)
		removed, err := st.Remove(root, "Groceries")
		assert.NoError(t, err)
		assert.Equal(t, 4, len(removed))
		assert.NoError(t, s.Commit(ctx, st))

		data, err := os.ReadFile(path)
		assert.NoError(t, err)
		assert.False(t, strings.Contains(string(data), "Coffee"))
		assert.True(t, s.Document().Equal(s.Tree().Document()))
	})

	t.Run("NoTemporaryFilesLeft", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Dir(path))
		assert.NoError(t, err)
		assert.Equal(t, 1, len(entries))
	})
}

func TestFileLoadMissing(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "missing.json")).Load(context.Background())
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestStoreReload(t *testing.T) {
	ctx := context.Background()
	s, path := newFileStore(t)
	assert.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	assert.NoError(t, s.Reload(ctx))
	assert.Equal(t, 7, s.Tree().Len())

	t.Run("CorruptKeepsLiveTree", func(t *testing.T) {
		assert.NoError(t, os.WriteFile(path, []byte(`{"HOME": {"a/b": {}}}`), 0o644))
		err := s.Reload(ctx)
		assert.True(t, errors.Is(err, branch.ErrPersistence))
		assert.Equal(t, 7, s.Tree().Len())
	})

	t.Run("MissingIsNotRecreated", func(t *testing.T) {
		assert.NoError(t, os.Remove(path))
		err := s.Reload(ctx)
		assert.True(t, errors.Is(err, fs.ErrNotExist))
		assert.Equal(t, 7, s.Tree().Len())
		_, statErr := os.Stat(path)
		assert.True(t, errors.Is(statErr, fs.ErrNotExist))
	})
}
