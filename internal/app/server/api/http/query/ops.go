package query

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

const tag = "data"

func (h *Handler) op(id, path, summary string) huma.Operation {
	return huma.Operation{
		OperationID: id,
		Method:      http.MethodGet,
		Path:        path,
		Summary:     summary,
		Tags:        []string{tag},
		Middlewares: h.middleware,
	}
}

func (h *Handler) listCasesOp() huma.Operation {
	return h.op("cases-list", "/api/v1/cases", "Дела с числом голосований")
}

func (h *Handler) getCaseOp() huma.Operation {
	return h.op("cases-get", "/api/v1/cases/{id}", "Дело и его голосования")
}

func (h *Handler) listHearingsOp() huma.Operation {
	return h.op("hearings-list", "/api/v1/hearings", "Слушания")
}

func (h *Handler) listPartiesOp() huma.Operation {
	return h.op("parties-list", "/api/v1/parties", "Партии")
}

func (h *Handler) statsOp() huma.Operation {
	return h.op("stats", "/api/v1/stats", "Число записей по видам сущностей")
}
