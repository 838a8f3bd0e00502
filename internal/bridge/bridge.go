// Package bridge runs the JSON-lines command loop: one command record per
// input line, one response record per output line.
package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/WoodPyle/wayneos-vm-app/internal/kernel"
	"github.com/WoodPyle/wayneos-vm-app/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// DefaultMaxLineBytes bounds a single input record
const DefaultMaxLineBytes = 1 << 20

// RecordSchema is the JSON Schema every input record must satisfy.
// Unknown keys are allowed.
const RecordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["type", "command"],
  "properties": {
    "type": {"type": "string"},
    "command": {"type": "string"},
    "params": {"type": ["object", "null"]}
  }
}`

var recordSchemaLoader = gojsonschema.NewStringLoader(RecordSchema)

// Processor handles decoded commands
type Processor interface {
	ProcessCommand(ctx context.Context, cmd kernel.Command) kernel.Response
}

// Bridge decodes records, hands them to a Processor and encodes the responses
type Bridge struct {
	processor    Processor
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	maxLineBytes int
}

// Option is a functional option for configuring the Bridge
type Option func(*Bridge)

// WithLogger sets the logger for the bridge
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithMetrics counts rejected records
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// WithMaxLineBytes bounds the size of one input line
func WithMaxLineBytes(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.maxLineBytes = n
		}
	}
}

// New creates a bridge in front of processor
func New(processor Processor, opts ...Option) *Bridge {
	b := &Bridge{
		processor:    processor,
		logger:       zerolog.Nop(),
		maxLineBytes: DefaultMaxLineBytes,
	}

	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With().Str("component", "bridge").Logger()

	return b
}

// HandleRecord decodes one record and processes it. Records that are not JSON
// or fail the record schema are answered without reaching the processor.
func (b *Bridge) HandleRecord(ctx context.Context, data []byte) kernel.Response {
	cmd, err := b.Decode(data)
	if err != nil {
		return kernel.ErrorResponse(err.Error())
	}
	return b.processor.ProcessCommand(ctx, cmd)
}

// DecodeError reports a record rejected before processing. Its message is
// the error text of the response record.
type DecodeError struct {
	// Reason is "json" for unparsable input, "schema" for records that
	// fail the record schema and "size" for oversized lines
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Reason == "json" {
		return "Invalid JSON: " + e.Err.Error()
	}
	return "Invalid command: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses and validates one record
func (b *Bridge) Decode(data []byte) (kernel.Command, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return kernel.Command{}, b.reject("json", err)
	}

	result, err := gojsonschema.Validate(recordSchemaLoader, gojsonschema.NewGoLoader(raw))
	if err != nil {
		return kernel.Command{}, b.reject("schema", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return kernel.Command{}, b.reject("schema", errors.New(strings.Join(msgs, "; ")))
	}

	var cmd kernel.Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return kernel.Command{}, b.reject("schema", err)
	}

	return cmd, nil
}

func (b *Bridge) reject(reason string, err error) error {
	if b.metrics != nil {
		b.metrics.InvalidRecords.WithLabelValues(reason).Inc()
	}
	b.logger.Error().Err(err).Str("reason", reason).Msg("Rejected input record")
	return &DecodeError{Reason: reason, Err: err}
}

type inputLine struct {
	data    []byte
	tooLong bool
}

// Run processes records from r until end of input or until ctx is done.
// Every input line yields exactly one response line on w, in input order.
// Blank lines and lines over the size limit are answered with an error
// record and the loop moves on.
func (b *Bridge) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan inputLine)
	readErr := make(chan error, 1)

	go func() {
		var err error
		defer func() {
			readErr <- err
			close(lines)
		}()

		br := bufio.NewReader(r)
		for {
			var line inputLine
			line, err = b.readLine(br)
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				return
			}

			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	b.logger.Debug().Msg("Command loop started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("failed to read input: %w", err)
				}
				b.logger.Debug().Msg("End of input")
				return nil
			}

			var resp kernel.Response
			if line.tooLong {
				err := b.reject("size", fmt.Errorf("record exceeds %d bytes", b.maxLineBytes))
				resp = kernel.ErrorResponse(err.Error())
			} else {
				resp = b.HandleRecord(ctx, line.data)
			}

			if err := enc.Encode(resp); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
		}
	}
}

// readLine reads one newline-terminated line. Lines longer than maxLineBytes
// are consumed up to their newline and reported as tooLong without their
// content. io.EOF is returned only when no bytes remain.
func (b *Bridge) readLine(br *bufio.Reader) (inputLine, error) {
	var line inputLine
	var buf []byte

	for {
		chunk, err := br.ReadSlice('\n')
		if !line.tooLong {
			buf = append(buf, chunk...)
			if len(bytes.TrimRight(buf, "\r\n")) > b.maxLineBytes {
				line.tooLong = true
				buf = nil
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(buf) == 0 && !line.tooLong {
				return line, io.EOF
			}
		case err != nil:
			return line, err
		}

		line.data = bytes.TrimSpace(buf)
		return line, nil
	}
}
