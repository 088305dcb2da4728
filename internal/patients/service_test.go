package patients

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryPatientRepo struct {
	patients map[int64]*Patient
	nextID   int64
}

func newMemoryPatientRepo() *memoryPatientRepo {
	return &memoryPatientRepo{patients: make(map[int64]*Patient)}
}

func (r *memoryPatientRepo) Create(ctx context.Context, p *Patient) (*Patient, error) {
	for _, existing := range r.patients {
		if existing.TaxID == p.TaxID {
			return nil, ErrDuplicate
		}
	}
	r.nextID++
	p.ID = r.nextID
	copied := *p
	r.patients[p.ID] = &copied
	return p, nil
}

func (r *memoryPatientRepo) Get(ctx context.Context, id int64) (*Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *memoryPatientRepo) List(ctx context.Context, req ListRequest) ([]Patient, error) {
	var out []Patient
	for _, p := range r.patients {
		if req.ActiveOnly && !p.Active {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *memoryPatientRepo) Count(ctx context.Context, req ListRequest) (int, error) {
	out, err := r.List(ctx, req)
	return len(out), err
}

func (r *memoryPatientRepo) Update(ctx context.Context, p *Patient) error {
	if _, ok := r.patients[p.ID]; !ok {
		return ErrNotFound
	}
	for _, existing := range r.patients {
		if existing.ID != p.ID && existing.TaxID == p.TaxID {
			return ErrDuplicate
		}
	}
	copied := *p
	r.patients[p.ID] = &copied
	return nil
}

func (r *memoryPatientRepo) SetActive(ctx context.Context, id int64, active bool) error {
	p, ok := r.patients[id]
	if !ok {
		return ErrNotFound
	}
	p.Active = active
	return nil
}

func TestCreatePatient(t *testing.T) {
	svc := NewService(newMemoryPatientRepo())

	p, err := svc.Create(context.Background(), UpsertPatientInput{
		Name:  "  Ana Souza  ",
		TaxID: "123.456.789-00",
	})
	require.NoError(t, err)
	require.Equal(t, "Ana Souza", p.Name)
	require.True(t, p.Active)
}

func TestCreatePatientDuplicateTaxID(t *testing.T) {
	svc := NewService(newMemoryPatientRepo())

	_, err := svc.Create(context.Background(), UpsertPatientInput{Name: "Ana", TaxID: "123.456.789-00"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), UpsertPatientInput{Name: "Outra Ana", TaxID: "123.456.789-00"})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestCreatePatientRequiresNameAndTaxID(t *testing.T) {
	svc := NewService(newMemoryPatientRepo())

	_, err := svc.Create(context.Background(), UpsertPatientInput{TaxID: "123"})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), UpsertPatientInput{Name: "Ana"})
	require.Error(t, err)
}

func TestUpdatePatient(t *testing.T) {
	repo := newMemoryPatientRepo()
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), UpsertPatientInput{Name: "Ana", TaxID: "123.456.789-00"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), p.ID, UpsertPatientInput{
		Name: "Ana Souza", TaxID: "123.456.789-00", InsurancePlan: "Unimed Central",
	})
	require.NoError(t, err)
	require.Equal(t, "Ana Souza", updated.Name)
	require.Equal(t, "Unimed Central", updated.InsurancePlan)

	_, err = svc.Update(context.Background(), 99, UpsertPatientInput{Name: "x", TaxID: "y"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeactivateIsSoft(t *testing.T) {
	repo := newMemoryPatientRepo()
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), UpsertPatientInput{Name: "Ana", TaxID: "123.456.789-00"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), p.ID))

	// Record is retained, only flagged inactive.
	got, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.False(t, got.Active)

	active, pg, err := svc.List(context.Background(), ListRequest{ActiveOnly: true})
	require.NoError(t, err)
	require.Empty(t, active)
	require.Zero(t, pg.Total)

	require.NoError(t, svc.Reactivate(context.Background(), p.ID))
	got, err = svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.True(t, got.Active)
}
