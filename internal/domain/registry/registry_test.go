package registry

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deedDate = time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC)

func newEntry(t *testing.T) *RepertoriumEntry {
	t.Helper()
	e, err := NewRepertoriumEntry(uuid.New(), uuid.New(), uuid.New(), deedDate, "sale", "Verkoop woning Kerkstraat 1")
	require.NoError(t, err)
	return e
}

func TestNewRepertoriumEntry(t *testing.T) {
	e := newEntry(t)
	assert.Equal(t, 2026, e.Year)
	assert.Equal(t, EntryRecorded, e.Status)
	assert.Zero(t, e.Number)

	_, err := NewRepertoriumEntry(uuid.New(), uuid.New(), uuid.Nil, deedDate, "sale", "x")
	assert.Error(t, err)
	_, err = NewRepertoriumEntry(uuid.New(), uuid.New(), uuid.New(), time.Time{}, "sale", "x")
	assert.Error(t, err)
	_, err = NewRepertoriumEntry(uuid.New(), uuid.New(), uuid.New(), deedDate, "", "x")
	assert.Error(t, err)
}

func TestRepertoriumEntry_Numbering(t *testing.T) {
	e := newEntry(t)
	assert.Error(t, e.AssignNumber(0))
	require.NoError(t, e.AssignNumber(15))
	assert.Equal(t, "2026/15", e.Label())
	assert.Error(t, e.AssignNumber(16), "numbers are immutable")
}

func TestRepertoriumEntry_Parties(t *testing.T) {
	e := newEntry(t)
	require.NoError(t, e.AddParty(KlapperEntry{LastName: " Peeters ", FirstName: "An", Capacity: "buyer"}))
	require.NoError(t, e.AddParty(KlapperEntry{LastName: "Immo NV", FirstName: "ignored", IsCompany: true}))
	assert.Error(t, e.AddParty(KlapperEntry{LastName: "  "}))

	require.Len(t, e.Parties, 2)
	assert.Equal(t, e.ID, e.Parties[0].EntryID)
	assert.Equal(t, e.TenantID, e.Parties[0].TenantID)
	assert.Equal(t, 2026, e.Parties[0].Year)
	assert.Equal(t, "Peeters, An", e.Parties[0].FullName())
	assert.Equal(t, "Immo NV", e.Parties[1].FullName())
}

func TestRepertoriumEntry_RegistrationAndVoid(t *testing.T) {
	e := newEntry(t)

	assert.Error(t, e.RecordRegistration(deedDate.AddDate(0, 0, -1), "REF"))
	require.NoError(t, e.RecordRegistration(deedDate.AddDate(0, 0, 3), " ANT-2026-001 "))
	assert.Equal(t, "ANT-2026-001", e.RegistrationRef)

	assert.Error(t, e.SetFee(decimal.NewFromInt(-1)))
	require.NoError(t, e.SetFee(decimal.RequireFromString("123.456")))
	assert.Equal(t, "123.46", e.Fee.StringFixed(2))

	assert.Error(t, e.Void(""))
	require.NoError(t, e.Void("Deed not executed"))
	assert.Equal(t, EntryVoided, e.Status)
	assert.ErrorIs(t, e.Void("again"), ErrEntryVoided)
	assert.ErrorIs(t, e.SetRemarks("x"), ErrEntryVoided)
	assert.ErrorIs(t, e.RecordRegistration(deedDate, "x"), ErrEntryVoided)
}

func TestIndexLetter(t *testing.T) {
	assert.Equal(t, "E", IndexLetter("Élise"))
	assert.Equal(t, "O", IndexLetter(" öztürk"))
	assert.Equal(t, "#", IndexLetter("123 BV"))
	assert.Equal(t, "#", IndexLetter(""))
	assert.Equal(t, "c", FoldName(" Çelik")[:1])
}

func TestSorter_Group(t *testing.T) {
	entries := []KlapperEntry{
		{LastName: "Zeeman", FirstName: "Bart", Year: 2026, EntryNumber: 3},
		{LastName: "Élise", FirstName: "Anna", Year: 2026, EntryNumber: 9},
		{LastName: "Eggermont", FirstName: "Jan", Year: 2026, EntryNumber: 4},
		{LastName: "de Smet", FirstName: "Karel", Year: 2026, EntryNumber: 1},
		{LastName: "Claes", FirstName: "Marie", Year: 2026, EntryNumber: 7},
		{LastName: "Claes", FirstName: "Marie", Year: 2026, EntryNumber: 2},
		{LastName: "Claes", FirstName: "Louis", Year: 2025, EntryNumber: 8},
	}

	sections := NewSorter("nl-BE").Group(entries)

	letters := make([]string, 0, len(sections))
	for _, s := range sections {
		letters = append(letters, s.Letter)
	}
	assert.Equal(t, []string{"C", "D", "E", "Z"}, letters)

	claes := sections[0].Entries
	require.Len(t, claes, 3)
	assert.Equal(t, "Louis", claes[0].FirstName)
	assert.Equal(t, 2, claes[1].EntryNumber)
	assert.Equal(t, 7, claes[2].EntryNumber)

	e := sections[2].Entries
	require.Len(t, e, 2)
	assert.Equal(t, "Eggermont", e[0].LastName)
	assert.Equal(t, "Élise", e[1].LastName)
}

func TestNewSorter_FallsBackToDutch(t *testing.T) {
	s := NewSorter("not a locale!")
	assert.NotNil(t, s)
	entries := []KlapperEntry{{LastName: "b"}, {LastName: "A"}}
	s.Sort(entries)
	assert.Equal(t, "A", entries[0].LastName)
}
