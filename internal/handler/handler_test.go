package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/certilote/certify-engine/internal/domain"
	"github.com/certilote/certify-engine/internal/repository"
	"github.com/certilote/certify-engine/internal/service"
	"github.com/certilote/certify-engine/internal/transport"
)

const testAdminToken = "admin-token"

type stubLoteService struct {
	createLoteFn        func(ctx context.Context, lote *domain.Lote) (*domain.Lote, error)
	listLotesFn         func(ctx context.Context, params repository.LoteListParams) ([]domain.Lote, int64, error)
	getLoteFn           func(ctx context.Context, id int64) (*domain.Lote, error)
	assignProcesoFn     func(ctx context.Context, loteID, procesoID int64) (*domain.Lote, error)
	workflowViewFn      func(ctx context.Context, loteID int64) (*service.WorkflowView, error)
	getMeasurementFn    func(ctx context.Context, loteID int64, numero int) (*domain.Medicion, error)
	submitMeasurementFn func(ctx context.Context, loteID int64, numero int, valores map[string]string) (*service.SubmitResult, error)
	evaluationLogFn     func(ctx context.Context, loteID int64) (*domain.Certificado, error)
}

func (s *stubLoteService) CreateLote(ctx context.Context, lote *domain.Lote) (*domain.Lote, error) {
	if s.createLoteFn == nil {
		return lote, nil
	}
	return s.createLoteFn(ctx, lote)
}

func (s *stubLoteService) ListLotes(ctx context.Context, params repository.LoteListParams) ([]domain.Lote, int64, error) {
	if s.listLotesFn == nil {
		return nil, 0, nil
	}
	return s.listLotesFn(ctx, params)
}

func (s *stubLoteService) GetLote(ctx context.Context, id int64) (*domain.Lote, error) {
	if s.getLoteFn == nil {
		return nil, domain.ErrNotFound
	}
	return s.getLoteFn(ctx, id)
}

func (s *stubLoteService) AssignProceso(ctx context.Context, loteID, procesoID int64) (*domain.Lote, error) {
	if s.assignProcesoFn == nil {
		return nil, domain.ErrNotFound
	}
	return s.assignProcesoFn(ctx, loteID, procesoID)
}

func (s *stubLoteService) WorkflowView(ctx context.Context, loteID int64) (*service.WorkflowView, error) {
	if s.workflowViewFn == nil {
		return nil, domain.ErrNotFound
	}
	return s.workflowViewFn(ctx, loteID)
}

func (s *stubLoteService) GetMeasurement(ctx context.Context, loteID int64, numero int) (*domain.Medicion, error) {
	if s.getMeasurementFn == nil {
		return nil, domain.ErrNotFound
	}
	return s.getMeasurementFn(ctx, loteID, numero)
}

func (s *stubLoteService) SubmitMeasurement(ctx context.Context, loteID int64, numero int, valores map[string]string) (*service.SubmitResult, error) {
	if s.submitMeasurementFn == nil {
		return nil, domain.ErrNotFound
	}
	return s.submitMeasurementFn(ctx, loteID, numero, valores)
}

func (s *stubLoteService) EvaluationLog(ctx context.Context, loteID int64) (*domain.Certificado, error) {
	if s.evaluationLogFn == nil {
		return nil, domain.ErrNotFound
	}
	return s.evaluationLogFn(ctx, loteID)
}

type stubCatalogService struct {
	createMateriaFn func(ctx context.Context, materia *domain.MateriaPrima) (*domain.MateriaPrima, error)
	getMateriaFn    func(ctx context.Context, id int64) (*domain.MateriaPrima, error)
	listMateriasFn  func(ctx context.Context) ([]domain.MateriaPrima, error)
	updateMateriaFn func(ctx context.Context, materia *domain.MateriaPrima) (*domain.MateriaPrima, error)
	deleteMateriaFn func(ctx context.Context, id int64) error

	createMaquinaFn func(ctx context.Context, maquina *domain.Maquina) (*domain.Maquina, error)
	getMaquinaFn    func(ctx context.Context, id int64) (*domain.Maquina, error)
	listMaquinasFn  func(ctx context.Context) ([]domain.Maquina, error)
	updateMaquinaFn func(ctx context.Context, maquina *domain.Maquina) (*domain.Maquina, error)
	deleteMaquinaFn func(ctx context.Context, id int64) error

	createProcesoFn func(ctx context.Context, proceso *domain.Proceso) (*domain.Proceso, error)
	getProcesoFn    func(ctx context.Context, id int64) (*domain.Proceso, error)
	listProcesosFn  func(ctx context.Context) ([]domain.Proceso, error)
	deleteProcesoFn func(ctx context.Context, id int64) error
}

func (s *stubCatalogService) CreateMateriaPrima(ctx context.Context, materia *domain.MateriaPrima) (*domain.MateriaPrima, error) {
	if s.createMateriaFn == nil {
		return materia, nil
	}
	return s.createMateriaFn(ctx, materia)
}

func (s *stubCatalogService) GetMateriaPrima(ctx context.Context, id int64) (*domain.MateriaPrima, error) {
	if s.getMateriaFn == nil {
		return nil, domain.ErrNotFound
	}
	return s.getMateriaFn(ctx, id)
}

func (s *stubCatalogService) ListMateriasPrimas(ctx context.Context) ([]domain.MateriaPrima, error) {
	if s.listMateriasFn == nil {
		return nil, nil
	}
	return s.listMateriasFn(ctx)
}

func (s *stubCatalogService) UpdateMateriaPrima(ctx context.Context, materia *domain.MateriaPrima) (*domain.MateriaPrima, error) {
	if s.updateMateriaFn == nil {
		return materia, nil
	}
	return s.updateMateriaFn(ctx, materia)
}

func (s *stubCatalogService) DeleteMateriaPrima(ctx context.Context, id int64) error {
	if s.deleteMateriaFn == nil {
		return nil
	}
	return s.deleteMateriaFn(ctx, id)
}

func (s *stubCatalogService) CreateMaquina(ctx context.Context, maquina *domain.Maquina) (*domain.Maquina, error) {
	if s.createMaquinaFn == nil {
		return maquina, nil
	}
	return s.createMaquinaFn(ctx, maquina)
}

func (s *stubCatalogService) GetMaquina(ctx context.Context, id int64) (*domain.Maquina, error) {
	if s.getMaquinaFn == nil {
		return nil, domain.ErrNotFound
	}
	return s.getMaquinaFn(ctx, id)
}

func (s *stubCatalogService) ListMaquinas(ctx context.Context) ([]domain.Maquina, error) {
	if s.listMaquinasFn == nil {
		return nil, nil
	}
	return s.listMaquinasFn(ctx)
}

func (s *stubCatalogService) UpdateMaquina(ctx context.Context, maquina *domain.Maquina) (*domain.Maquina, error) {
	if s.updateMaquinaFn == nil {
		return maquina, nil
	}
	return s.updateMaquinaFn(ctx, maquina)
}

func (s *stubCatalogService) DeleteMaquina(ctx context.Context, id int64) error {
	if s.deleteMaquinaFn == nil {
		return nil
	}
	return s.deleteMaquinaFn(ctx, id)
}

func (s *stubCatalogService) CreateProceso(ctx context.Context, proceso *domain.Proceso) (*domain.Proceso, error) {
	if s.createProcesoFn == nil {
		return proceso, nil
	}
	return s.createProcesoFn(ctx, proceso)
}

func (s *stubCatalogService) GetProceso(ctx context.Context, id int64) (*domain.Proceso, error) {
	if s.getProcesoFn == nil {
		return nil, domain.ErrNotFound
	}
	return s.getProcesoFn(ctx, id)
}

func (s *stubCatalogService) ListProcesos(ctx context.Context) ([]domain.Proceso, error) {
	if s.listProcesosFn == nil {
		return nil, nil
	}
	return s.listProcesosFn(ctx)
}

func (s *stubCatalogService) DeleteProceso(ctx context.Context, id int64) error {
	if s.deleteProcesoFn == nil {
		return nil
	}
	return s.deleteProcesoFn(ctx, id)
}

// newTestApp wires the API group the way cmd/api does: auth middleware first,
// then feature-guarded route groups. Catalog admin routes require the bearer
// token; lote and certification routes run as anonimo.
func newTestApp(t *testing.T, loteSvc LoteService, catalogSvc CatalogService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})

	tokens := transport.NewTokenRoles([]string{testAdminToken}, nil)
	api := app.Group("/api", transport.AuthMiddleware(tokens))

	if loteSvc != nil {
		if err := RegisterLoteRoutes(api, loteSvc); err != nil {
			t.Fatalf("RegisterLoteRoutes() error = %v", err)
		}
		if err := RegisterWorkflowRoutes(api, loteSvc); err != nil {
			t.Fatalf("RegisterWorkflowRoutes() error = %v", err)
		}
	}
	if catalogSvc != nil {
		if err := RegisterCatalogRoutes(api, catalogSvc); err != nil {
			t.Fatalf("RegisterCatalogRoutes() error = %v", err)
		}
	}

	return app
}

func performRequest(t *testing.T, app *fiber.App, method string, path string, body string, headers ...string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}
