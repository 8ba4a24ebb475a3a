package localstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annourmah/etudia/core"
	"github.com/annourmah/etudia/core/student"
	"github.com/annourmah/etudia/storage/kvstore"
)

func TestStoreCollections(t *testing.T) {
	store := New(kvstore.NewMemStore())

	t.Run("empty store loads empty collections", func(t *testing.T) {
		students, err := store.LoadStudents()
		require.NoError(t, err)
		assert.NotNil(t, students)
		assert.Empty(t, students)

		results, err := store.LoadResults()
		require.NoError(t, err)
		assert.Empty(t, results)

		users, err := store.LoadUsers()
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("round trip", func(t *testing.T) {
		in := []student.Student{{
			ID:        1,
			FirstName: "John",
			LastName:  "Doe",
			Matricule: "MAT001",
			CreatedAt: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
		}}
		require.NoError(t, store.SaveStudents(in))

		out, err := store.LoadStudents()
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
}

func TestStoreLegacyMigrationOnLoad(t *testing.T) {
	kv := kvstore.NewMemStore()
	require.NoError(t, kv.Set(core.KeyStudents, []byte(`[{"id":"77","nom":"Old","prenom":"Timer","dob":"1999-05-01","matricule":"M77"}]`)))
	require.NoError(t, kv.Set(core.KeyResults, []byte(`[{"id":3,"studentId":"77","subject":"Maths","score":"15.5"}]`)))

	store := New(kv)

	students, err := store.LoadStudents()
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, int64(77), students[0].ID)
	assert.Equal(t, "Old", students[0].FirstName)
	assert.Equal(t, "Timer", students[0].LastName)
	assert.Equal(t, "1999-05-01", students[0].DateOfBirth)

	results, err := store.LoadResults()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "3", results[0].ID)
	assert.Equal(t, int64(77), results[0].StudentID)
	assert.Equal(t, 15.5, results[0].Score)
}

func TestStoreFlags(t *testing.T) {
	store := New(kvstore.NewMemStore())

	assert.Equal(t, "light", store.Theme()) // default
	require.NoError(t, store.SetTheme("dark"))
	assert.Equal(t, "dark", store.Theme())

	assert.False(t, store.OfflineMode()) // default
	require.NoError(t, store.SetOfflineMode(true))
	assert.True(t, store.OfflineMode())
	require.NoError(t, store.SetOfflineMode(false))
	assert.False(t, store.OfflineMode())
}
