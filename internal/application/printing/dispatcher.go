package printing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/binara/printsvc/internal/infrastructure/device"
	"github.com/binara/printsvc/internal/infrastructure/logger"
	"github.com/binara/printsvc/internal/infrastructure/printing/backend"
	"github.com/binara/printsvc/internal/infrastructure/printing/plan"
	"github.com/binara/printsvc/internal/infrastructure/storage"
	"github.com/binara/printsvc/internal/infrastructure/telemetry"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DispatchConfig bounds how long a dispatch waits for a device
type DispatchConfig struct {
	// AcquireTimeout bounds the wait for the device lock and, separately,
	// the total time spent retrying Open.
	AcquireTimeout      time.Duration
	OpenAttempts        int
	OpenInitialInterval time.Duration
	OpenMaxInterval     time.Duration
}

// DefaultDispatchConfig returns the settings used when none are configured
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		AcquireTimeout:      30 * time.Second,
		OpenAttempts:        3,
		OpenInitialInterval: 200 * time.Millisecond,
		OpenMaxInterval:     2 * time.Second,
	}
}

func (c DispatchConfig) withDefaults() DispatchConfig {
	d := DefaultDispatchConfig()
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = d.AcquireTimeout
	}
	if c.OpenAttempts < 1 {
		c.OpenAttempts = d.OpenAttempts
	}
	if c.OpenInitialInterval <= 0 {
		c.OpenInitialInterval = d.OpenInitialInterval
	}
	if c.OpenMaxInterval < c.OpenInitialInterval {
		c.OpenMaxInterval = c.OpenInitialInterval
	}
	return c
}

// DispatchOptions carries the per-request values of one dispatch
type DispatchOptions struct {
	// JobID identifies the dispatch in logs and the outcome. Generated when nil.
	JobID uuid.UUID
	// FileName names the stored PDF for vector targets. Defaults to <job id>.pdf.
	FileName string
	// Copies is the number of times the output is written to a device,
	// all under one device lock. Values below 1 mean one copy.
	Copies int
}

// Dispatcher selects the encoder for a profile, renders the document and
// delivers the output to a device or to output storage. At most one
// dispatch holds a given device name at a time.
type Dispatcher struct {
	builder  *plan.Builder
	encoders *backend.Registry
	devices  device.Writer
	locker   device.Locker
	storage  storage.OutputStorage
	metrics  *telemetry.PrintMetrics
	cfg      DispatchConfig
	logger   *zap.Logger
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithDeviceWriter sets the sink for device-bound backends
func WithDeviceWriter(w device.Writer) DispatcherOption {
	return func(d *Dispatcher) { d.devices = w }
}

// WithLocker replaces the in-process device locker
func WithLocker(l device.Locker) DispatcherOption {
	return func(d *Dispatcher) { d.locker = l }
}

// WithOutputStorage sets the sink for vector canvas output
func WithOutputStorage(s storage.OutputStorage) DispatcherOption {
	return func(d *Dispatcher) { d.storage = s }
}

// WithMetrics records dispatch metrics
func WithMetrics(m *telemetry.PrintMetrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithDispatchConfig sets timeouts and retry bounds
func WithDispatchConfig(cfg DispatchConfig) DispatcherOption {
	return func(d *Dispatcher) { d.cfg = cfg }
}

// WithBuilder replaces the default plan builder
func WithBuilder(b *plan.Builder) DispatcherOption {
	return func(d *Dispatcher) { d.builder = b }
}

// WithDispatchLogger sets the logger
func WithDispatchLogger(l *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a dispatcher over the given encoders
func NewDispatcher(encoders *backend.Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		builder:  plan.NewBuilder(),
		encoders: encoders,
		locker:   device.NewLocalLocker(),
		cfg:      DefaultDispatchConfig(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	d.cfg = d.cfg.withDefaults()
	return d
}

// Dispatch renders doc for profile and delivers it. Build and encode errors
// are returned as is; device errors are DeviceBusy, DeviceUnavailable or
// WriteFailed. Content that overflows a single-page profile still succeeds,
// with the overflow reported in the outcome's warnings.
func (d *Dispatcher) Dispatch(ctx context.Context, doc printing.Document, profile printing.DeviceProfile, opts DispatchOptions) (*printing.PrintOutcome, error) {
	if opts.JobID == uuid.Nil {
		opts.JobID = uuid.New()
	}
	if opts.Copies < 1 {
		opts.Copies = 1
	}
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "print.dispatch",
		telemetry.SpanAttrJobID, opts.JobID.String(),
		telemetry.SpanAttrTarget, profile.Name,
		telemetry.SpanAttrBackend, profile.Kind.String(),
		telemetry.SpanAttrCopies, opts.Copies,
	)
	defer span.End()

	log := logger.For(ctx, d.logger).With(
		zap.String("job_id", opts.JobID.String()),
		zap.String("target", profile.Name),
		zap.String("backend", profile.Kind.String()),
	)

	outcome, err := d.dispatch(ctx, doc, profile, opts, log)
	d.record(ctx, profile, outcome, err, time.Since(start))
	if err != nil {
		telemetry.RecordError(span, err)
		fields := []zap.Field{zap.Error(err), zap.String("error_code", printing.KindOf(err).String())}
		if printing.IsEncodeError(err) {
			log.Warn("Print request rejected", fields...)
		} else {
			log.Error("Print dispatch failed", fields...)
		}
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPages, outcome.Pages,
		telemetry.SpanAttrBytes, outcome.Bytes,
		telemetry.SpanAttrOverflow, len(outcome.Warnings) > 0,
	)
	log.Info("Print dispatched",
		zap.Int("pages", outcome.Pages),
		zap.Int("bytes", outcome.Bytes),
		zap.Int("copies", opts.Copies),
		zap.Strings("warnings", outcome.Warnings),
		zap.Duration("duration", time.Since(start)),
	)
	return outcome, nil
}

// Render lays out and encodes doc for profile without touching a device or
// storage. The plan carries any overflow warnings.
func (d *Dispatcher) Render(ctx context.Context, doc printing.Document, profile printing.DeviceProfile) (*printing.Plan, *printing.Output, error) {
	if err := profile.Validate(); err != nil {
		return nil, nil, err
	}
	enc, err := d.encoders.Get(profile.Kind)
	if err != nil {
		return nil, nil, err
	}
	p, err := d.builder.Build(doc, profile)
	if err != nil {
		return nil, nil, err
	}
	out, err := enc.Encode(ctx, p, profile)
	if err != nil {
		return nil, nil, err
	}
	return p, out, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, doc printing.Document, profile printing.DeviceProfile, opts DispatchOptions, log *zap.Logger) (*printing.PrintOutcome, error) {
	p, out, err := d.Render(ctx, doc, profile)
	if err != nil {
		return nil, err
	}

	outcome := &printing.PrintOutcome{
		Status:  printing.OutcomeSuccess,
		JobID:   opts.JobID,
		Target:  profile.Name,
		Backend: profile.Kind,
		Pages:   p.Pages,
		Bytes:   out.Size(),
	}
	if out.Pages > 0 {
		outcome.Pages = out.Pages
	}

	if profile.Kind.WritesToDevice() {
		name := profile.DeviceName()
		if err := d.writeDevice(ctx, name, out, opts.Copies, log); err != nil {
			return nil, err
		}
		outcome.Message = fmt.Sprintf("Sent to printer %s", name)
	} else {
		fileName := opts.FileName
		if fileName == "" {
			fileName = opts.JobID.String() + ".pdf"
		}
		res, err := d.store(ctx, fileName, out)
		if err != nil {
			return nil, err
		}
		outcome.Message = "PDF generated"
		outcome.OutputPath = res.Path
		outcome.FileURL = res.URL
	}

	if p.Overflow != nil {
		outcome.Warnings = append(outcome.Warnings, p.Overflow.Warning())
		outcome.Message += fmt.Sprintf(" with warnings: %d line(s) beyond the page budget", p.Overflow.Lines)
	}
	return outcome, nil
}

// writeDevice holds the device lock for all copies. Each copy is opened,
// written and closed separately so a failure never leaves a handle open.
func (d *Dispatcher) writeDevice(ctx context.Context, name string, out *printing.Output, copies int, log *zap.Logger) error {
	if d.devices == nil {
		return printing.NewConfigurationError("no device writer configured for device %q", name)
	}
	release, err := d.acquire(ctx, name)
	if err != nil {
		return err
	}
	defer release()

	for i := 0; i < copies; i++ {
		if err := d.writeOnce(ctx, name, out, log); err != nil {
			if copies > 1 {
				return fmt.Errorf("copy %d of %d: %w", i+1, copies, err)
			}
			return err
		}
	}
	return nil
}

func (d *Dispatcher) writeOnce(ctx context.Context, name string, out *printing.Output, log *zap.Logger) error {
	h, err := d.open(ctx, name, log)
	if err != nil {
		return err
	}
	if err := d.devices.Write(ctx, h, out); err != nil {
		if abortErr := h.Abort(); abortErr != nil {
			log.Warn("Failed to abort device job", zap.String("device", name), zap.Error(abortErr))
		}
		if printing.KindOf(err) != "" {
			return err
		}
		return printing.NewWriteFailedError(name, err)
	}
	if err := h.Close(); err != nil {
		return printing.NewWriteFailedError(name, err)
	}
	return nil
}

// open retries transient failures with exponential backoff. An unknown
// device name is permanent.
func (d *Dispatcher) open(ctx context.Context, name string, log *zap.Logger) (device.Handle, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = d.cfg.OpenInitialInterval
	eb.MaxInterval = d.cfg.OpenMaxInterval
	eb.MaxElapsedTime = d.cfg.AcquireTimeout
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(d.cfg.OpenAttempts-1)), ctx)

	var h device.Handle
	attempts := 0
	err := backoff.RetryNotify(func() error {
		attempts++
		var err error
		h, err = d.devices.Open(ctx, name)
		if errors.Is(err, device.ErrUnknownDevice) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, next time.Duration) {
		log.Debug("Device open failed, retrying",
			zap.String("device", name),
			zap.Int("attempt", attempts),
			zap.Duration("next", next),
			zap.Error(err))
	})
	if err != nil {
		return nil, printing.NewDeviceUnavailableError(name, fmt.Errorf("after %d attempt(s): %w", attempts, err))
	}
	return h, nil
}

// acquire waits at most AcquireTimeout for the lock on name
func (d *Dispatcher) acquire(ctx context.Context, name string) (func(), error) {
	waitStart := time.Now()
	actx, cancel := context.WithTimeout(ctx, d.cfg.AcquireTimeout)
	defer cancel()

	release, err := d.locker.Acquire(actx, name)
	d.metrics.RecordLockWait(ctx, name, time.Since(waitStart), err == nil)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, printing.NewDeviceUnavailableError(name, fmt.Errorf("request deadline passed while waiting: %w", ctx.Err()))
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("waiting for %q: %w", name, ctx.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, printing.NewDeviceBusyError(name, fmt.Errorf("not released within %s", d.cfg.AcquireTimeout))
		}
		return nil, printing.NewDeviceUnavailableError(name, err)
	}
	return release, nil
}

// store writes a PDF under the output file lock so two requests for the same
// bill never interleave.
func (d *Dispatcher) store(ctx context.Context, fileName string, out *printing.Output) (*storage.StoreResult, error) {
	if d.storage == nil {
		return nil, printing.NewConfigurationError("no output storage configured")
	}
	release, err := d.acquire(ctx, "file:"+fileName)
	if err != nil {
		return nil, err
	}
	defer release()

	res, err := d.storage.Store(ctx, &storage.StoreRequest{
		FileName:    fileName,
		Data:        out.Data,
		ContentType: out.ContentType,
	})
	if err != nil {
		if errors.Is(err, storage.ErrInvalidPath) {
			return nil, printing.NewConfigurationError("invalid output file name %q", fileName)
		}
		return nil, printing.NewWriteFailedError(fileName, err)
	}
	return res, nil
}

func (d *Dispatcher) record(ctx context.Context, profile printing.DeviceProfile, outcome *printing.PrintOutcome, err error, elapsed time.Duration) {
	r := telemetry.DispatchRecord{
		Backend:  profile.Kind.String(),
		Target:   profile.Name,
		Status:   string(printing.OutcomeSuccess),
		Duration: elapsed,
	}
	if err != nil {
		r.Status = string(printing.OutcomeFailure)
		r.ErrorCode = printing.KindOf(err).String()
	} else {
		r.Bytes = int64(outcome.Bytes)
		r.Pages = outcome.Pages
		r.Overflow = len(outcome.Warnings) > 0
	}
	d.metrics.RecordDispatch(ctx, r)
}
