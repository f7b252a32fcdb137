package logger

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controla formato e nível dos logs.
type Config struct {
	Level string `toml:"level" env:"LEVEL"`
	Env   string `toml:"env" env:"ENV"`
}

// New constrói o logger: JSON em produção, console colorido nos demais ambientes.
func New(cfg Config) (*zap.Logger, error) {
	var logConfig zap.Config
	if cfg.Env == "production" {
		logConfig = zap.NewProductionConfig()
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level = zapcore.InfoLevel
		}
	}
	logConfig.Level.SetLevel(level)

	return logConfig.Build()
}

// Middleware registra cada requisição HTTP com o request id do chi.
func Middleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
			}
			if ww.Status() >= http.StatusInternalServerError {
				log.Error("requisição HTTP falhou", fields...)
				return
			}
			log.Info("requisição HTTP concluída", fields...)
		})
	}
}
