// Package agent wires the routing core together: classify a request, build
// its descriptors, execute them through the backend collaborator, and shape
// the result. The agent is stateless; concurrent Handle calls are safe.
package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/rchen/bookmind/internal/backend"
	"github.com/rchen/bookmind/internal/format"
	"github.com/rchen/bookmind/internal/intent"
	"github.com/rchen/bookmind/internal/model"
	"github.com/rchen/bookmind/internal/query"
	"github.com/rchen/bookmind/internal/schema"
)

// Agent routes requests through the classifier, builder, backend, and
// formatter.
type Agent struct {
	classifier *intent.Classifier
	builder    *query.Builder
	formatter  *format.Formatter
	client     backend.Client
	log        *zap.Logger
}

// New builds an agent around a read-only registry and a backend client.
func New(reg *schema.Registry, client backend.Client, log *zap.Logger) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{
		classifier: intent.NewClassifier(reg),
		builder:    query.NewBuilder(reg),
		formatter:  format.NewFormatter(),
		client:     client,
		log:        log,
	}
}

// Handle processes one request end to end. Classification and construction
// errors fail fast, before any backend call. A backend failure surfaces as
// BackendUnavailableError with no fields assumed applied.
func (a *Agent) Handle(ctx context.Context, req *model.Request) (*model.Response, error) {
	in, err := a.classifier.Classify(req)
	if err != nil {
		return fail(in, err)
	}

	descs, err := a.builder.Build(in, req)
	if err != nil {
		return fail(in, err)
	}

	a.log.Debug("routing request",
		zap.String("intent", string(in)),
		zap.Int("descriptors", len(descs)))

	var records []model.Record
	var last *model.Descriptor
	for i := range descs {
		desc := &descs[i]
		last = desc

		var results []model.Record
		switch desc.Verb {
		case model.VerbStore:
			err = a.client.Store(ctx, desc.Tag, desc.Features, desc.AppendFeatures)
		case model.VerbFetch:
			results, err = a.client.Fetch(ctx, desc.Tag)
		case model.VerbSearch:
			results, err = a.client.Search(ctx, desc.Tag, desc.Query, desc.Filters)
		}
		if err != nil {
			return fail(in, &model.BackendUnavailableError{Err: err})
		}
		records = append(records, results...)
	}

	data, err := a.formatter.Format(in, last, records)
	if err != nil {
		return fail(in, err)
	}

	return &model.Response{Intent: in, Data: data}, nil
}

func fail(in model.Intent, err error) (*model.Response, error) {
	return &model.Response{Intent: in, Error: err.Error()}, err
}
