package importing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"telesales_backend/internal/leads/management"
	"telesales_backend/internal/leads/repository"
	"telesales_backend/internal/phonevault"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreator struct {
	seen    map[string]uuid.UUID
	storeAt int
	calls   int
	inputs  []management.CreateLeadInput
}

func (f *fakeCreator) CreateLead(_ context.Context, _ actor.Actor, in management.CreateLeadInput) (repository.Lead, error) {
	f.calls++
	f.inputs = append(f.inputs, in)
	if f.storeAt > 0 && f.calls == f.storeAt {
		return repository.Lead{}, errors.New("connection refused")
	}
	if in.QualityTag == "excellent" {
		return repository.Lead{}, apperr.Validation("invalid quality tag")
	}
	digits := phonevault.DeriveIndices(in.Phone, "880")
	key := digits.Last4 + digits.First4
	if id, ok := f.seen[key]; ok {
		return repository.Lead{}, apperr.Conflict("duplicate").WithCode(apperr.CodeDuplicateLead).
			WithDetails(management.DuplicateDetails{ExistingLeadID: id})
	}
	id := uuid.New()
	f.seen[key] = id
	return repository.Lead{ID: id, BatchID: in.BatchID, Source: in.Source}, nil
}

type storedError struct {
	row     int
	data    json.RawMessage
	message string
}

type fakeBatches struct {
	batch    repository.ImportBatch
	finished *repository.BatchCounters
	status   string
	summary  *string
	errs     []storedError
}

func (f *fakeBatches) CreateBatch(_ context.Context, number, fileName string, uploadedBy *uuid.UUID, total int) (repository.ImportBatch, error) {
	f.batch = repository.ImportBatch{
		ID:          uuid.New(),
		BatchNumber: number,
		FileName:    fileName,
		UploadedBy:  uploadedBy,
		TotalRows:   total,
		Status:      repository.BatchProcessing,
	}
	return f.batch, nil
}

func (f *fakeBatches) FinishBatch(_ context.Context, _ uuid.UUID, status string, counters repository.BatchCounters, summary *string) (repository.ImportBatch, error) {
	f.status = status
	f.finished = &counters
	f.summary = summary
	return f.batch, nil
}

func (f *fakeBatches) InsertImportError(_ context.Context, _ uuid.UUID, row int, data json.RawMessage, message string) error {
	f.errs = append(f.errs, storedError{row: row, data: data, message: message})
	return nil
}

func newService() (*Service, *fakeCreator, *fakeBatches) {
	creator := &fakeCreator{seen: make(map[string]uuid.UUID)}
	batches := &fakeBatches{}
	return New(creator, batches, nil, nil), creator, batches
}

func TestImport_CountsEachOutcome(t *testing.T) {
	svc, creator, batches := newService()
	manager := actor.New(uuid.New(), actor.RoleManager)

	report, err := svc.Import(context.Background(), manager, "march.xlsx", []Row{
		{Name: "Karim", Phone: "8801921805176"},
		{Name: "", Phone: "01711111111"},
		{Name: "Karim again", Phone: "+880 1921-805176"},
		{Name: "Nadia", Phone: "01822222222", QualityTag: "excellent"},
		{Name: "Sumi", Phone: "01933333333"},
	})
	require.NoError(t, err)

	assert.Regexp(t, `^BATCH-\d{8}-[A-Z0-9]{6}$`, report.BatchNumber)
	assert.Equal(t, repository.BatchCompleted, report.Status)
	assert.Equal(t, 5, report.TotalRows)
	assert.Equal(t, 2, report.Successful)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, []RowError{
		{Row: 3, Reason: "Name and phone are required"},
		{Row: 4, Reason: "Duplicate phone number"},
		{Row: 5, Reason: "invalid quality tag"},
	}, report.Errors)

	require.Len(t, batches.errs, 3)
	assert.Equal(t, 4, batches.errs[1].row)
	assert.JSONEq(t, `{"name":"Karim again","phone":"+880 1921-805176"}`, string(batches.errs[1].data))
	require.NotNil(t, batches.finished)
	assert.Equal(t, repository.BatchCounters{Total: 5, Successful: 2, Failed: 2, Duplicates: 1}, *batches.finished)

	// the empty-name row never reaches lead creation
	assert.Equal(t, 4, creator.calls)
	for _, in := range creator.inputs {
		assert.Equal(t, "import", in.Source)
		require.NotNil(t, in.BatchID)
		assert.Equal(t, report.BatchID, *in.BatchID)
	}
}

func TestImport_StoreFailureMarksBatchFailed(t *testing.T) {
	svc, creator, batches := newService()
	creator.storeAt = 2

	report, err := svc.Import(context.Background(), actor.System(), "x.csv", []Row{
		{Name: "A", Phone: "01711111111"},
		{Name: "B", Phone: "01822222222"},
		{Name: "C", Phone: "01933333333"},
	})
	require.Error(t, err)

	assert.Equal(t, repository.BatchFailed, report.Status)
	assert.Equal(t, repository.BatchFailed, batches.status)
	require.NotNil(t, batches.summary)
	assert.Contains(t, *batches.summary, "connection refused")
	assert.Equal(t, 1, report.Successful)
	assert.Equal(t, 2, creator.calls, "rows after the failure are not attempted")
	assert.Nil(t, batches.batch.UploadedBy, "system imports have no uploader")
}

func TestImport_EmptyInputCompletes(t *testing.T) {
	svc, _, batches := newService()

	report, err := svc.Import(context.Background(), actor.System(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, repository.BatchCompleted, batches.status)
	assert.Zero(t, report.TotalRows)
	assert.Empty(t, report.Errors)
}
