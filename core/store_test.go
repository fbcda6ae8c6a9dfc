package core_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xRadioAc7iv/go-contactfile/core"
	"github.com/0xRadioAc7iv/go-contactfile/internal/record"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), core.DefaultFileName)
}

func openStore(t *testing.T, path string, opts ...core.Option) *core.Store {
	t.Helper()

	s, err := core.Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func newContact(email string) *core.Contact {
	return &core.Contact{
		GivenNames:  "Grace",
		FamilyNames: "Hopper",
		Company:     "Eckert-Mauchly",
		Address:     "1 Navy Yard",
		City:        "Arlington",
		Country:     "USA",
		Region:      "Virginia",
		Phone1:      "555-0100",
		Phone2:      "555-0199",
		Email:       email,
	}
}

func encodedLen(t *testing.T, c *core.Contact) int {
	t.Helper()
	data, err := record.Encode(c)
	require.NoError(t, err)
	return len(data)
}

func TestFindMissingKey(t *testing.T) {
	s := openStore(t, tempPath(t))

	c, err := s.Find("nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestInsertFind(t *testing.T) {
	s := openStore(t, tempPath(t))

	a := newContact("a@x.com")
	b := newContact("b@x.com")
	b.GivenNames = "Barbara"

	require.NoError(t, s.Insert(a))
	require.NoError(t, s.Insert(b))

	got, err := s.Find("a@x.com")
	require.NoError(t, err)
	assert.Equal(t, a, got)

	got, err = s.Find("b@x.com")
	require.NoError(t, err)
	assert.Equal(t, b, got)

	got, err = s.Find("c@x.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Exists("a@x.com"))
	assert.False(t, s.Exists("c@x.com"))
}

func TestInsertDuplicateKey(t *testing.T) {
	s := openStore(t, tempPath(t))

	require.NoError(t, s.Insert(newContact("a@x.com")))

	dup := newContact("a@x.com")
	dup.Company = "Someone Else"
	err := s.Insert(dup)
	require.ErrorIs(t, err, core.ErrDuplicateKey)

	got, err := s.Find("a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Eckert-Mauchly", got.Company)
	assert.Equal(t, 1, s.Len())
}

func TestInsertEmptyKey(t *testing.T) {
	s := openStore(t, tempPath(t))

	require.NoError(t, s.Insert(newContact("")))

	got, err := s.Find("")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Grace", got.GivenNames)
}

func TestUpdateMissingKey(t *testing.T) {
	path := tempPath(t)
	s := openStore(t, path)

	require.NoError(t, s.Insert(newContact("a@x.com")))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	found, err := s.Update("ghost@x.com", newContact("ghost@x.com"))
	require.NoError(t, err)
	assert.False(t, found)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	got, err := s.Find("a@x.com")
	require.NoError(t, err)
	assert.NotNil(t, got)

	got, err = s.Find("ghost@x.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateShrinkLeavesNoGarbage(t *testing.T) {
	path := tempPath(t)
	s := openStore(t, path)

	long := newContact("a@x.com")
	long.Address = strings.Repeat("Long Street ", 4)
	short := &core.Contact{Email: "a@x.com", City: "Oslo"}

	oldLen := encodedLen(t, long)
	newLen := encodedLen(t, short)
	require.Less(t, newLen, oldLen)

	require.NoError(t, s.Insert(long))

	found, err := s.Update("a@x.com", short)
	require.NoError(t, err)
	require.True(t, found)

	got, err := s.Find("a@x.com")
	require.NoError(t, err)
	assert.Equal(t, short, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, oldLen, "in-place update must not grow the file")
	for i := newLen; i < oldLen; i++ {
		require.Zero(t, data[i], "byte %d of the old range was not zeroed", i)
	}
}

func TestUpdateSameLength(t *testing.T) {
	s := openStore(t, tempPath(t))

	require.NoError(t, s.Insert(newContact("a@x.com")))

	c := newContact("a@x.com")
	c.Phone1 = "555-0101"
	found, err := s.Update("a@x.com", c)
	require.NoError(t, err)
	require.True(t, found)

	got, err := s.Find("a@x.com")
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestUpdateGrowRelocates(t *testing.T) {
	path := tempPath(t)
	s := openStore(t, path)

	require.NoError(t, s.Insert(&core.Contact{Email: "a@x.com"}))
	require.NoError(t, s.Insert(newContact("b@x.com")))

	oldLen := encodedLen(t, &core.Contact{Email: "a@x.com"})
	bigger := newContact("a@x.com")
	bigger.Address = strings.Repeat("Very Long Avenue ", 10)

	found, err := s.Update("a@x.com", bigger)
	require.NoError(t, err)
	require.True(t, found)

	got, err := s.Find("a@x.com")
	require.NoError(t, err)
	assert.Equal(t, bigger, got, "grown record must not be truncated")

	got, err = s.Find("b@x.com")
	require.NoError(t, err)
	assert.Equal(t, newContact("b@x.com"), got, "neighbouring record must be untouched")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for i := 0; i < oldLen; i++ {
		require.Zero(t, data[i], "old range byte %d was not zeroed", i)
	}

	s.Close()
	reopened := openStore(t, path)
	got, err = reopened.Find("a@x.com")
	require.NoError(t, err)
	assert.Equal(t, bigger, got)
	assert.Equal(t, 2, reopened.Len())
}

func TestUpdateChangesKey(t *testing.T) {
	path := tempPath(t)
	s := openStore(t, path)

	require.NoError(t, s.Insert(newContact("old@x.com")))
	require.NoError(t, s.Insert(newContact("other@x.com")))

	renamed := newContact("new@x.com")
	found, err := s.Update("old@x.com", renamed)
	require.NoError(t, err)
	require.True(t, found)

	got, err := s.Find("old@x.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.Find("new@x.com")
	require.NoError(t, err)
	assert.Equal(t, renamed, got)
	assert.Equal(t, 2, s.Len())

	s.Close()
	reopened := openStore(t, path)

	got, err = reopened.Find("old@x.com")
	require.NoError(t, err)
	assert.Nil(t, got, "old key resurrected after reopen")

	got, err = reopened.Find("new@x.com")
	require.NoError(t, err)
	assert.Equal(t, renamed, got)
}

func TestUpdateToTakenKey(t *testing.T) {
	s := openStore(t, tempPath(t))

	require.NoError(t, s.Insert(newContact("a@x.com")))
	require.NoError(t, s.Insert(newContact("b@x.com")))

	found, err := s.Update("a@x.com", newContact("b@x.com"))
	require.ErrorIs(t, err, core.ErrDuplicateKey)
	assert.True(t, found)

	got, err := s.Find("a@x.com")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, 2, s.Len())
}

func TestDelete(t *testing.T) {
	path := tempPath(t)
	s := openStore(t, path)

	require.NoError(t, s.Insert(newContact("a@x.com")))
	require.NoError(t, s.Insert(newContact("b@x.com")))

	found, err := s.Delete("a@x.com")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = s.Delete("a@x.com")
	require.NoError(t, err)
	assert.False(t, found)

	got, err := s.Find("a@x.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	// the key can be used again
	require.NoError(t, s.Insert(newContact("a@x.com")))
	found, err = s.Delete("a@x.com")
	require.NoError(t, err)
	assert.True(t, found)

	s.Close()
	reopened := openStore(t, path)

	got, err = reopened.Find("a@x.com")
	require.NoError(t, err)
	assert.Nil(t, got, "deleted contact resurrected after reopen")

	keys, err := reopened.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"b@x.com"}, keys)
}

func TestReopenRebuildsIndex(t *testing.T) {
	path := tempPath(t)
	s, err := core.Open(path, core.WithInitialCapacity(2))
	require.NoError(t, err)

	want := make(map[string]*core.Contact)
	for i := 0; i < 40; i++ {
		c := newContact(fmt.Sprintf("user%02d@x.com", i))
		c.Address = strings.Repeat("#", i)
		require.NoError(t, s.Insert(c))
		want[c.Email] = c
	}

	// mix of shrinking, growing and renaming updates
	for i := 0; i < 40; i += 3 {
		key := fmt.Sprintf("user%02d@x.com", i)
		c := newContact(key)
		c.Address = strings.Repeat("@", 40-i)
		if i%2 == 0 {
			c.Email = fmt.Sprintf("renamed%02d@x.com", i)
		}
		found, err := s.Update(key, c)
		require.NoError(t, err)
		require.True(t, found)
		delete(want, key)
		want[c.Email] = c
	}

	before := make(map[string]*core.Contact)
	for key := range want {
		got, err := s.Find(key)
		require.NoError(t, err)
		before[key] = got
	}
	require.NoError(t, s.Close())

	reopened := openStore(t, path, core.WithInitialCapacity(2))
	assert.Equal(t, len(want), reopened.Len())

	for key, c := range want {
		got, err := reopened.Find(key)
		require.NoError(t, err)
		assert.Equal(t, c, got, key)
		assert.Equal(t, before[key], got, key)
	}
}

func TestCapacityGrowsWithLoad(t *testing.T) {
	s := openStore(t, tempPath(t), core.WithInitialCapacity(4))
	assert.Equal(t, 4, s.Capacity())

	prev := s.Capacity()
	for i := 0; i < 100; i++ {
		require.NoError(t, s.Insert(newContact(fmt.Sprintf("c%d@x.com", i))))
		require.GreaterOrEqual(t, s.Capacity(), prev)
		require.LessOrEqual(t, 2*s.Len(), s.Capacity())
		prev = s.Capacity()
	}
}

func TestKeysSorted(t *testing.T) {
	s := openStore(t, tempPath(t))

	for _, k := range []string{"m@x.com", "a@x.com", "z@x.com"} {
		require.NoError(t, s.Insert(newContact(k)))
	}

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com", "m@x.com", "z@x.com"}, keys)
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "contacts.db")

	s := openStore(t, path)
	require.NoError(t, s.Insert(newContact("a@x.com")))
	assert.FileExists(t, path)
	assert.Equal(t, path, s.Path())
}

func TestOpenDirectoryFails(t *testing.T) {
	_, err := core.Open(t.TempDir())
	require.ErrorIs(t, err, core.ErrIO)
}

func TestOpenTrimsTornRecord(t *testing.T) {
	path := tempPath(t)
	s := openStore(t, path)
	require.NoError(t, s.Insert(newContact("a@x.com")))
	require.NoError(t, s.Close())

	intact, err := os.ReadFile(path)
	require.NoError(t, err)

	torn, err := record.Encode(newContact("b@x.com"))
	require.NoError(t, err)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.Write(torn[:len(torn)/2])
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened := openStore(t, path)
	assert.Equal(t, 1, reopened.Len())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, intact, data, "torn bytes should have been cut off")

	require.NoError(t, reopened.Insert(newContact("b@x.com")))
	got, err := reopened.Find("b@x.com")
	require.NoError(t, err)
	assert.Equal(t, newContact("b@x.com"), got)
}

func TestOpenRejectsCorruptLengthBeforeIntactRecord(t *testing.T) {
	path := tempPath(t)
	s := openStore(t, path)
	for _, k := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		require.NoError(t, s.Insert(newContact(k)))
	}
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// first field header of b now claims a length running past the end of file
	b := encodedLen(t, newContact("a@x.com"))
	data[b+1] = 0x7A
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = core.Open(path)
	require.ErrorIs(t, err, core.ErrFormat)
	assert.NotErrorIs(t, err, record.ErrTruncated)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, after, "file must not be modified")
}

func TestOpenRejectsCorruption(t *testing.T) {
	path := tempPath(t)
	s := openStore(t, path)
	require.NoError(t, s.Insert(newContact("a@x.com")))
	require.NoError(t, s.Insert(newContact("b@x.com")))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	i := strings.Index(string(data), "Arlington")
	require.Positive(t, i)
	data[i] = 'a'
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = core.Open(path)
	require.ErrorIs(t, err, core.ErrFormat)
	assert.ErrorIs(t, err, record.ErrChecksum)
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, os.WriteFile(path, []byte("not a contact file"), 0644))

	_, err := core.Open(path)
	require.ErrorIs(t, err, core.ErrFormat)
}

func TestOpenSkipsPaddingOnly(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, os.WriteFile(path, make([]byte, 300), 0644))

	s := openStore(t, path)
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Insert(newContact("a@x.com")))
	s.Close()

	reopened := openStore(t, path)
	got, err := reopened.Find("a@x.com")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestReplayRecordLargerThanChunk(t *testing.T) {
	path := tempPath(t)
	s := openStore(t, path)

	big := newContact("big@x.com")
	big.Address = strings.Repeat("x", 200*core.OneKilobyte)
	require.NoError(t, s.Insert(newContact("a@x.com")))
	require.NoError(t, s.Insert(big))
	require.NoError(t, s.Insert(newContact("z@x.com")))
	require.NoError(t, s.Close())

	reopened := openStore(t, path)
	assert.Equal(t, 3, reopened.Len())

	got, err := reopened.Find("big@x.com")
	require.NoError(t, err)
	assert.Equal(t, big, got)

	got, err = reopened.Find("z@x.com")
	require.NoError(t, err)
	assert.Equal(t, newContact("z@x.com"), got)
}

func TestReplayKeepsLaterDuplicate(t *testing.T) {
	path := tempPath(t)

	first := newContact("dup@x.com")
	second := newContact("dup@x.com")
	second.Company = "Later Inc"

	var data []byte
	for _, c := range []*core.Contact{first, second} {
		enc, err := record.Encode(c)
		require.NoError(t, err)
		data = append(data, enc...)
	}
	require.NoError(t, os.WriteFile(path, data, 0644))

	s := openStore(t, path)
	assert.Equal(t, 1, s.Len())

	got, err := s.Find("dup@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Later Inc", got.Company)
}

func TestFindCorruptRecord(t *testing.T) {
	path := tempPath(t)
	s := openStore(t, path)
	require.NoError(t, s.Insert(newContact("a@x.com")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	i := strings.Index(string(data), "Hopper")
	require.Positive(t, i)

	f, err := os.OpenFile(path, os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("h"), int64(i))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = s.Find("a@x.com")
	require.ErrorIs(t, err, core.ErrFormat)
}

func TestFindShortRead(t *testing.T) {
	path := tempPath(t)
	s := openStore(t, path)
	require.NoError(t, s.Insert(newContact("a@x.com")))

	require.NoError(t, os.Truncate(path, 5))

	c, err := s.Find("a@x.com")
	require.ErrorIs(t, err, core.ErrIO)
	assert.Nil(t, c)
}

func TestClosedStore(t *testing.T) {
	s, err := core.Open(tempPath(t))
	require.NoError(t, err)
	require.NoError(t, s.Insert(newContact("a@x.com")))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Insert(newContact("b@x.com")), core.ErrClosed)

	_, err = s.Find("a@x.com")
	assert.ErrorIs(t, err, core.ErrClosed)

	_, err = s.Update("a@x.com", newContact("a@x.com"))
	assert.ErrorIs(t, err, core.ErrClosed)

	_, err = s.Delete("a@x.com")
	assert.ErrorIs(t, err, core.ErrClosed)

	_, err = s.Keys()
	assert.ErrorIs(t, err, core.ErrClosed)

	assert.ErrorIs(t, s.Sync(), core.ErrClosed)
	assert.False(t, s.Exists("a@x.com"))
	assert.Zero(t, s.Len())
}

func TestSyncWrites(t *testing.T) {
	path := tempPath(t)
	s := openStore(t, path, core.WithSyncWrites(true))

	require.NoError(t, s.Insert(newContact("a@x.com")))
	found, err := s.Update("a@x.com", newContact("b@x.com"))
	require.NoError(t, err)
	assert.True(t, found)
	require.NoError(t, s.Sync())

	found, err = s.Delete("b@x.com")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestNilContactIsFormatError(t *testing.T) {
	s := openStore(t, tempPath(t))
	require.NoError(t, s.Insert(newContact("a@x.com")))

	require.ErrorIs(t, s.Insert(nil), core.ErrFormat)

	found, err := s.Update("a@x.com", nil)
	require.ErrorIs(t, err, core.ErrFormat)
	assert.False(t, found)

	got, err := s.Find("a@x.com")
	require.NoError(t, err)
	assert.Equal(t, newContact("a@x.com"), got)
}

func TestInvalidContactIsFormatError(t *testing.T) {
	s := openStore(t, tempPath(t))

	c := newContact("a@x.com")
	c.City = "\xff"
	require.ErrorIs(t, s.Insert(c), core.ErrFormat)
	assert.Zero(t, s.Len())
}
