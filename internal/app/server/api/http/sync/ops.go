package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

const tag = "sync"

var bearer = []map[string][]string{{"bearer": {}}}

func (h *Handler) op(id, method, path, summary string) huma.Operation {
	return huma.Operation{
		OperationID: id,
		Method:      method,
		Path:        path,
		Summary:     summary,
		Tags:        []string{tag},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) statusOp() huma.Operation {
	return h.op("sync-status", http.MethodGet, "/api/v1/sync/status", "Текущий и последний запуск")
}

func (h *Handler) listRunsOp() huma.Operation {
	return h.op("sync-runs-list", http.MethodGet, "/api/v1/sync/runs", "История запусков, новые первыми")
}

func (h *Handler) latestRunOp() huma.Operation {
	return h.op("sync-runs-latest", http.MethodGet, "/api/v1/sync/runs/latest", "Последний запуск")
}

func (h *Handler) runByWorkflowOp() huma.Operation {
	return h.op("sync-runs-get", http.MethodGet, "/api/v1/sync/runs/{workflowId}", "Запуск по идентификатору workflow")
}

func (h *Handler) deleteRunsOp() huma.Operation {
	op := h.op("sync-runs-delete", http.MethodPost, "/api/v1/sync/runs/delete", "Удалить запуски")
	op.Description = "Удаляет завершенные запуски и состояние их workflow. Активный запуск не удаляется."
	return op
}

func (h *Handler) startOp() huma.Operation {
	op := h.op("sync-start", http.MethodPost, "/api/v1/sync/start", "Запустить синхронизацию")
	op.Description = "Без force запуск разрешен только при включенной ночной синхронизации. Не больше одного активного запуска."
	return op
}

func (h *Handler) cancelOp() huma.Operation {
	return h.op("sync-cancel", http.MethodPost, "/api/v1/sync/cancel", "Отменить активный запуск")
}

func (h *Handler) runningOp() huma.Operation {
	return h.op("sync-running", http.MethodGet, "/api/v1/sync/running", "Есть ли активный запуск")
}

func (h *Handler) settingsOp() huma.Operation {
	return h.op("sync-settings", http.MethodGet, "/api/v1/sync/settings", "Все настройки синхронизации")
}

func (h *Handler) getNightlyOp() huma.Operation {
	return h.op("sync-nightly-get", http.MethodGet, "/api/v1/sync/settings/nightly", "Включена ли ночная синхронизация")
}

func (h *Handler) toggleNightlyOp() huma.Operation {
	return h.op("sync-nightly-put", http.MethodPut, "/api/v1/sync/settings/nightly", "Включить или выключить ночную синхронизацию")
}

func (h *Handler) getRetentionOp() huma.Operation {
	return h.op("sync-retention-get", http.MethodGet, "/api/v1/sync/settings/retention", "Срок хранения истории")
}

func (h *Handler) updateRetentionOp() huma.Operation {
	return h.op("sync-retention-put", http.MethodPut, "/api/v1/sync/settings/retention", "Изменить срок хранения истории")
}
