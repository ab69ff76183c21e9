package template

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"time"

	"github.com/jellydator/ttlcache/v2"
	"github.com/shandysiswandi/otpgate/internal/notification/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/storage"
	"go.opentelemetry.io/otel/codes"
)

const (
	loginOTPName    = "login_otp"
	loginOTPSubject = "Your OTP Code"

	maxTemplateBytes = 256 << 10
)

var (
	//go:embed login_otp.html
	loginOTPHTML string
	//go:embed login_otp.txt
	loginOTPText string
)

// Template serves email templates. Bodies stored in object storage under
// modules.notification.template.bucket override the built-in ones and are
// cached for modules.notification.template.cache_ttl_seconds.
type Template struct {
	store  storage.Storage
	cache  *ttlcache.Cache
	ins    instrument.Instrumentation
	bucket string
	prefix string
}

// New returns a Template. store may be nil, in which case only the built-in
// templates are used.
func New(store storage.Storage, cfg config.Config, ins instrument.Instrumentation) *Template {
	ttl := cfg.GetSecond("modules.notification.template.cache_ttl_seconds")
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	cache := ttlcache.NewCache()
	cache.SkipTTLExtensionOnHit(true)
	_ = cache.SetTTL(ttl)

	return &Template{
		store:  store,
		cache:  cache,
		ins:    ins,
		bucket: cfg.GetString("modules.notification.template.bucket"),
		prefix: cfg.GetString("modules.notification.template.prefix"),
	}
}

func (t *Template) Close() error {
	return t.cache.Close()
}

func (t *Template) LoginOTP(ctx context.Context) (*entity.Template, error) {
	ctx, span := t.ins.Tracer("notification.outbound.template").Start(ctx, "LoginOTP")
	defer span.End()

	tpl := &entity.Template{
		Name:     loginOTPName,
		Subject:  loginOTPSubject,
		HTMLBody: loginOTPHTML,
		TextBody: loginOTPText,
	}

	html, err := t.override(ctx, loginOTPName+".html")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "failed to load template override, using built-in", "template", loginOTPName, "error", err)
		return tpl, nil
	}
	if html != "" {
		tpl.HTMLBody = html
	}

	return tpl, nil
}

// override returns the stored body for name, or "" when none is configured
// or the object does not exist. Misses are cached too.
func (t *Template) override(ctx context.Context, name string) (string, error) {
	if t.store == nil || t.bucket == "" {
		return "", nil
	}

	key := t.prefix + name
	if v, err := t.cache.Get(key); err == nil {
		body, _ := v.(string)
		return body, nil
	}

	data, err := storage.ReadAll(ctx, t.store, t.bucket, key, maxTemplateBytes)
	if errors.Is(err, storage.ErrNotFound) {
		_ = t.cache.Set(key, "")
		return "", nil
	}
	if err != nil {
		return "", err
	}

	body := string(data)
	_ = t.cache.Set(key, body)

	return body, nil
}
