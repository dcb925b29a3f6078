package handler

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/certilote/certify-engine/internal/domain"
	"github.com/certilote/certify-engine/internal/transport"
)

type WorkflowHandler struct {
	service LoteService
}

func NewWorkflowHandler(service LoteService) (*WorkflowHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("lote service is required")
	}
	return &WorkflowHandler{service: service}, nil
}

func RegisterWorkflowRoutes(router fiber.Router, service LoteService) error {
	h, err := NewWorkflowHandler(service)
	if err != nil {
		return err
	}

	transformacion := router.Group("/proceso-transformacion", transport.RequireFeature(domain.FeatureCertificar))
	transformacion.Get("/lote/:id", h.GetWorkflowView)
	transformacion.Get("/:id/maquina/:numero", h.GetMeasurement)
	transformacion.Post("/:id/maquina/:numero", h.SubmitMeasurement)

	evaluacion := router.Group("/proceso-evaluacion", transport.RequireFeature(domain.FeatureCertificados))
	evaluacion.Get("/log/:id", h.GetEvaluationLog)

	return nil
}

type medicionResponse struct {
	NumeroMaquina  int               `json:"NumeroMaquina"`
	Valores        map[string]string `json:"Valores"`
	CumpleEstandar bool              `json:"CumpleEstandar"`
	FechaRegistro  time.Time         `json:"FechaRegistro"`
}

type workflowStepResponse struct {
	Numero    int                   `json:"Numero"`
	Nombre    string                `json:"Nombre"`
	Imagen    string                `json:"Imagen,omitempty"`
	Estado    string                `json:"Estado"`
	Variables []variableDefResponse `json:"variables"`
	Medicion  *medicionResponse     `json:"Medicion,omitempty"`
}

type workflowViewResponse struct {
	IdLote        int64                  `json:"IdLote"`
	EstadoLote    string                 `json:"EstadoLote"`
	IdProceso     int64                  `json:"IdProceso"`
	NombreProceso string                 `json:"NombreProceso"`
	Fase          string                 `json:"Fase"`
	Maquinas      []workflowStepResponse `json:"Maquinas"`
}

type submitMedicionResponse struct {
	CumpleEstandar bool   `json:"CumpleEstandar"`
	Mensaje        string `json:"Mensaje"`
	Finalizado     bool   `json:"Finalizado"`
	Resultado      string `json:"Resultado,omitempty"`
}

type resultadoFinalResponse struct {
	EstadoFinal     string    `json:"EstadoFinal"`
	Motivo          string    `json:"Motivo"`
	FechaEvaluacion time.Time `json:"FechaEvaluacion"`
}

type logMaquinaResponse struct {
	NumeroMaquina       int               `json:"NumeroMaquina"`
	NombreMaquina       string            `json:"NombreMaquina"`
	CumpleEstandar      bool              `json:"CumpleEstandar"`
	VariablesIngresadas map[string]string `json:"VariablesIngresadas"`
}

type evaluationLogResponse struct {
	IdLote         int64                  `json:"IdLote"`
	ResultadoFinal resultadoFinalResponse `json:"ResultadoFinal"`
	Maquinas       []logMaquinaResponse   `json:"Maquinas"`
}

func (h *WorkflowHandler) GetWorkflowView(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	view, err := h.service.WorkflowView(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	maquinas := make([]workflowStepResponse, 0, len(view.Steps))
	for _, step := range view.Steps {
		variables := make([]variableDefResponse, 0, len(step.Paso.Variables))
		for _, variable := range step.Paso.Variables {
			variables = append(variables, variableDefResponse{
				Nombre: variable.Nombre,
				Min:    variable.Min,
				Max:    variable.Max,
			})
		}

		item := workflowStepResponse{
			Numero:    step.Paso.Numero,
			Nombre:    step.Paso.Nombre,
			Imagen:    step.Paso.Imagen,
			Estado:    step.State.String(),
			Variables: variables,
		}
		if step.Medicion != nil {
			item.Medicion = toMedicionResponse(step.Medicion)
		}
		maquinas = append(maquinas, item)
	}

	return c.Status(fiber.StatusOK).JSON(workflowViewResponse{
		IdLote:        view.Lote.ID,
		EstadoLote:    view.Lote.Estado.String(),
		IdProceso:     view.Proceso.ID,
		NombreProceso: view.Proceso.Nombre,
		Fase:          string(view.Phase),
		Maquinas:      maquinas,
	})
}

func (h *WorkflowHandler) GetMeasurement(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	numero, err := parseIDParam(c, "numero")
	if err != nil {
		return err
	}

	medicion, err := h.service.GetMeasurement(c.Context(), id, int(numero))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toMedicionResponse(medicion))
}

// SubmitMeasurement accepts the variable-name to raw-value map the client
// collected for one machine step. Values stay strings end to end; parsing and
// range checking happen in the workflow evaluator.
func (h *WorkflowHandler) SubmitMeasurement(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	numero, err := parseIDParam(c, "numero")
	if err != nil {
		return err
	}

	var valores map[string]string
	if err := c.BodyParser(&valores); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.SubmitMeasurement(c.Context(), id, int(numero), valores)
	if err != nil {
		return toHTTPError(err)
	}

	resp := submitMedicionResponse{
		CumpleEstandar: result.Medicion.CumpleEstandar,
		Mensaje:        result.Mensaje,
		Finalizado:     result.Finalizado,
	}
	if result.Finalizado {
		resp.Resultado = result.Resultado.String()
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *WorkflowHandler) GetEvaluationLog(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	certificado, err := h.service.EvaluationLog(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	maquinas := make([]logMaquinaResponse, 0, len(certificado.Pasos))
	for _, paso := range certificado.Pasos {
		maquinas = append(maquinas, logMaquinaResponse{
			NumeroMaquina:       paso.Numero,
			NombreMaquina:       paso.Nombre,
			CumpleEstandar:      paso.CumpleEstandar,
			VariablesIngresadas: paso.Valores,
		})
	}

	return c.Status(fiber.StatusOK).JSON(evaluationLogResponse{
		IdLote: certificado.LoteID,
		ResultadoFinal: resultadoFinalResponse{
			EstadoFinal:     certificado.Resultado.String(),
			Motivo:          certificado.Motivo,
			FechaEvaluacion: certificado.FechaEvaluacion,
		},
		Maquinas: maquinas,
	})
}

func toMedicionResponse(medicion *domain.Medicion) *medicionResponse {
	if medicion == nil {
		return nil
	}
	return &medicionResponse{
		NumeroMaquina:  medicion.Numero,
		Valores:        medicion.Valores,
		CumpleEstandar: medicion.CumpleEstandar,
		FechaRegistro:  medicion.CreatedAt,
	}
}
