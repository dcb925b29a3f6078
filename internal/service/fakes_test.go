package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/certilote/certify-engine/internal/domain"
	"github.com/certilote/certify-engine/internal/queue"
	"github.com/certilote/certify-engine/internal/repository"
)

type fakeLoteRepo struct {
	createFn             func(ctx context.Context, lote *domain.Lote) error
	getByIDFn            func(ctx context.Context, id int64) (*domain.Lote, error)
	listFn               func(ctx context.Context, params repository.LoteListParams) ([]domain.Lote, int64, error)
	assignProcesoFn      func(ctx context.Context, loteID, procesoID int64) error
	updateEstadoFn       func(ctx context.Context, loteID int64, estado domain.Estado) error
	listSinCertificadoFn func(ctx context.Context, limit int) ([]domain.Lote, error)
}

func (f *fakeLoteRepo) Create(ctx context.Context, lote *domain.Lote) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, lote)
}

func (f *fakeLoteRepo) GetByID(ctx context.Context, id int64) (*domain.Lote, error) {
	if f.getByIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeLoteRepo) List(ctx context.Context, params repository.LoteListParams) ([]domain.Lote, int64, error) {
	if f.listFn == nil {
		return nil, 0, nil
	}
	return f.listFn(ctx, params)
}

func (f *fakeLoteRepo) AssignProceso(ctx context.Context, loteID, procesoID int64) error {
	if f.assignProcesoFn == nil {
		return nil
	}
	return f.assignProcesoFn(ctx, loteID, procesoID)
}

func (f *fakeLoteRepo) UpdateEstado(ctx context.Context, loteID int64, estado domain.Estado) error {
	if f.updateEstadoFn == nil {
		return nil
	}
	return f.updateEstadoFn(ctx, loteID, estado)
}

func (f *fakeLoteRepo) ListFinalizadosSinCertificado(ctx context.Context, limit int) ([]domain.Lote, error) {
	if f.listSinCertificadoFn == nil {
		return nil, nil
	}
	return f.listSinCertificadoFn(ctx, limit)
}

type fakeProcesoRepo struct {
	createFn  func(ctx context.Context, proceso *domain.Proceso) error
	getByIDFn func(ctx context.Context, id int64) (*domain.Proceso, error)
	listFn    func(ctx context.Context) ([]domain.Proceso, error)
	deleteFn  func(ctx context.Context, id int64) error
}

func (f *fakeProcesoRepo) Create(ctx context.Context, proceso *domain.Proceso) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, proceso)
}

func (f *fakeProcesoRepo) GetByID(ctx context.Context, id int64) (*domain.Proceso, error) {
	if f.getByIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeProcesoRepo) List(ctx context.Context) ([]domain.Proceso, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx)
}

func (f *fakeProcesoRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

type fakeMedicionRepo struct {
	createFn             func(ctx context.Context, medicion *domain.Medicion) error
	getByLoteAndNumeroFn func(ctx context.Context, loteID int64, numero int) (*domain.Medicion, error)
	listByLoteFn         func(ctx context.Context, loteID int64) ([]domain.Medicion, error)
}

func (f *fakeMedicionRepo) Create(ctx context.Context, medicion *domain.Medicion) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, medicion)
}

func (f *fakeMedicionRepo) GetByLoteAndNumero(ctx context.Context, loteID int64, numero int) (*domain.Medicion, error) {
	if f.getByLoteAndNumeroFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByLoteAndNumeroFn(ctx, loteID, numero)
}

func (f *fakeMedicionRepo) ListByLote(ctx context.Context, loteID int64) ([]domain.Medicion, error) {
	if f.listByLoteFn == nil {
		return nil, nil
	}
	return f.listByLoteFn(ctx, loteID)
}

type fakeCertificadoRepo struct {
	upsertFn      func(ctx context.Context, certificado *domain.Certificado) error
	getByLoteIDFn func(ctx context.Context, loteID int64) (*domain.Certificado, error)
}

func (f *fakeCertificadoRepo) Upsert(ctx context.Context, certificado *domain.Certificado) error {
	if f.upsertFn == nil {
		return nil
	}
	return f.upsertFn(ctx, certificado)
}

func (f *fakeCertificadoRepo) GetByLoteID(ctx context.Context, loteID int64) (*domain.Certificado, error) {
	if f.getByLoteIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByLoteIDFn(ctx, loteID)
}

type fakeMateriaRepo struct {
	createFn  func(ctx context.Context, materia *domain.MateriaPrima) error
	getByIDFn func(ctx context.Context, id int64) (*domain.MateriaPrima, error)
	listFn    func(ctx context.Context) ([]domain.MateriaPrima, error)
	updateFn  func(ctx context.Context, materia *domain.MateriaPrima) error
	deleteFn  func(ctx context.Context, id int64) error
}

func (f *fakeMateriaRepo) Create(ctx context.Context, materia *domain.MateriaPrima) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, materia)
}

func (f *fakeMateriaRepo) GetByID(ctx context.Context, id int64) (*domain.MateriaPrima, error) {
	if f.getByIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeMateriaRepo) List(ctx context.Context) ([]domain.MateriaPrima, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx)
}

func (f *fakeMateriaRepo) Update(ctx context.Context, materia *domain.MateriaPrima) error {
	if f.updateFn == nil {
		return nil
	}
	return f.updateFn(ctx, materia)
}

func (f *fakeMateriaRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

type fakeMaquinaRepo struct {
	createFn  func(ctx context.Context, maquina *domain.Maquina) error
	getByIDFn func(ctx context.Context, id int64) (*domain.Maquina, error)
	listFn    func(ctx context.Context) ([]domain.Maquina, error)
	updateFn  func(ctx context.Context, maquina *domain.Maquina) error
	deleteFn  func(ctx context.Context, id int64) error
}

func (f *fakeMaquinaRepo) Create(ctx context.Context, maquina *domain.Maquina) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, maquina)
}

func (f *fakeMaquinaRepo) GetByID(ctx context.Context, id int64) (*domain.Maquina, error) {
	if f.getByIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeMaquinaRepo) List(ctx context.Context) ([]domain.Maquina, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx)
}

func (f *fakeMaquinaRepo) Update(ctx context.Context, maquina *domain.Maquina) error {
	if f.updateFn == nil {
		return nil
	}
	return f.updateFn(ctx, maquina)
}

func (f *fakeMaquinaRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, msg queue.CertificateMessage) error
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, msg queue.CertificateMessage) error {
	if f.publishFn == nil {
		return nil
	}
	return f.publishFn(ctx, queueName, msg)
}

func (f *fakePublisher) Close() error { return nil }

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queueName string, handler queue.MessageHandler) error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	if f.consumeFn == nil {
		<-ctx.Done()
		return nil
	}
	return f.consumeFn(ctx, queueName, handler)
}

func (f *fakeConsumer) Close() error { return nil }

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, key string) (bool, error)
}

func (f *fakeRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if f.allowFn == nil {
		return true, nil
	}
	return f.allowFn(ctx, key)
}

func (f *fakeRateLimiter) Wait(ctx context.Context, key string) error {
	allowed, err := f.Allow(ctx, key)
	if err != nil {
		return err
	}
	if !allowed {
		return domain.ErrRateLimited
	}
	return nil
}

type fakeLogCache struct {
	getFn func(ctx context.Context, loteID int64) (*domain.Certificado, bool, error)
	setFn func(ctx context.Context, certificado *domain.Certificado) error
}

func (f *fakeLogCache) Get(ctx context.Context, loteID int64) (*domain.Certificado, bool, error) {
	if f.getFn == nil {
		return nil, false, nil
	}
	return f.getFn(ctx, loteID)
}

func (f *fakeLogCache) Set(ctx context.Context, certificado *domain.Certificado) error {
	if f.setFn == nil {
		return nil
	}
	return f.setFn(ctx, certificado)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testProceso() *domain.Proceso {
	return &domain.Proceso{
		ID:     10,
		Nombre: "Molienda estándar",
		Pasos: []domain.MaquinaPaso{
			{
				Numero: 1,
				Nombre: "Mezcladora",
				Variables: []domain.VariableDef{
					{Nombre: "temperatura", Min: dec("60"), Max: dec("80")},
				},
			},
			{
				Numero: 2,
				Nombre: "Molino",
				Variables: []domain.VariableDef{
					{Nombre: "presion", Min: dec("1"), Max: dec("5")},
				},
			},
		},
	}
}

func testLote(procesoID int64, estado domain.Estado) *domain.Lote {
	return &domain.Lote{
		ID:        42,
		Nombre:    "Lote 42",
		Estado:    estado,
		ProcesoID: &procesoID,
	}
}
