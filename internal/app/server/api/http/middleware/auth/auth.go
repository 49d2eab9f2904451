package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

const (
	// ActorAdmin автор изменений при проверенном токене
	ActorAdmin = "admin"
	// ActorAnonymous автор изменений при открытом API
	ActorAnonymous = "anonymous"

	// ActorHeader необязательное имя оператора для журнала настроек
	ActorHeader = "X-Sync-Actor"
)

// Auth проверка Bearer-токена администратора по bcrypt-хэшу
type Auth struct {
	api       huma.API
	tokenHash []byte
	log       *slog.Logger
}

// New при пустом хэше пропускает все запросы
func New(api huma.API, tokenHash string, log *slog.Logger) *Auth {
	a := &Auth{
		api:       api,
		tokenHash: []byte(tokenHash),
		log:       log.With("component", "auth_middleware"),
	}
	if tokenHash == "" {
		a.log.Warn("ADMIN_TOKEN_HASH is empty, admin API is open")
	}
	return a
}

type contextKey string

const actorKey contextKey = "actor"

// Middleware возвращает middleware для Huma с сигнатурой func(ctx Context, next func(Context))
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if len(a.tokenHash) == 0 {
			next(huma.WithContext(ctx, WithActor(ctx.Context(), actor(ctx, ActorAnonymous))))
			return
		}

		header := ctx.Header("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			a.log.Warn("missing bearer token", "path", ctx.URL().Path)
			_ = huma.WriteErr(a.api, ctx, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if err := bcrypt.CompareHashAndPassword(a.tokenHash, []byte(token)); err != nil {
			a.log.Warn("invalid bearer token", "path", ctx.URL().Path)
			_ = huma.WriteErr(a.api, ctx, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next(huma.WithContext(ctx, WithActor(ctx.Context(), actor(ctx, ActorAdmin))))
	}
}

func actor(ctx huma.Context, fallback string) string {
	if name := strings.TrimSpace(ctx.Header(ActorHeader)); name != "" {
		return name
	}
	return fallback
}

// WithActor кладет автора запроса в контекст
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// Actor автор запроса; ActorAnonymous если не задан
func Actor(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey).(string); ok {
		return a
	}
	return ActorAnonymous
}

// HashToken bcrypt-хэш токена для ADMIN_TOKEN_HASH
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
