package services

import (
	"context"
	"sync"

	"github/itish2003/pdfquery/models"

	"github.com/sirupsen/logrus"
)

// View is what the gate needs from a front-end. SetQueryEnabled toggles the
// query input and its submit control together.
type View interface {
	ShowStatus(text string, level models.StatusLevel)
	ShowResult(text string)
	SetQueryEnabled(enabled bool)
	Notify(message string)
}

const (
	msgSelectFile   = "Please select a file"
	msgUploadFirst  = "Please upload a file before submitting a query."
	msgEnterQuery   = "Please enter a query"
	msgUploading    = "File is uploading..."
	msgUploaded     = "File uploaded successfully!"
	msgUploadFailed = "Error uploading file."
)

// UploadGate lets queries through only after a successful upload.
//
// The mutex covers state and view updates, never the network call, so
// overlapping operations both run and the one that settles last wins.
type UploadGate struct {
	service PDFService
	view    View
	logger  logrus.FieldLogger

	mu    sync.Mutex
	state models.UploadState
}

// NewUploadGate creates a gate in the NotUploaded state and disables the
// query affordances.
func NewUploadGate(service PDFService, view View, logger logrus.FieldLogger) *UploadGate {
	g := &UploadGate{
		service: service,
		view:    view,
		logger:  logger,
		state:   models.NotUploaded,
	}
	view.SetQueryEnabled(false)
	return g
}

// State returns the current upload state.
func (g *UploadGate) State() models.UploadState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Uploaded reports whether queries are currently allowed.
func (g *UploadGate) Uploaded() bool {
	return g.State() == models.Uploaded
}

// Upload sends file to the service. Any failure leaves the gate closed,
// even if an earlier upload had opened it.
func (g *UploadGate) Upload(ctx context.Context, file *models.FileSelection) error {
	if file.Empty() {
		g.view.Notify(msgSelectFile)
		return ErrNoFileSelected
	}

	g.mu.Lock()
	g.view.ShowStatus(msgUploading, models.StatusInfo)
	g.mu.Unlock()

	log := g.logger.WithField("file", file.Name)
	log.Info("GATE: Uploading file")

	result, err := g.send(ctx, file)

	g.mu.Lock()
	defer g.mu.Unlock()

	if err != nil {
		opErr := &OperationError{Op: OpUpload, Err: err}
		log.WithError(err).Error("GATE: Upload failed")
		g.view.ShowResult(opErr.Error())
		g.view.ShowStatus(msgUploadFailed, models.StatusError)
		g.state = models.NotUploaded
		g.view.SetQueryEnabled(false)
		return opErr
	}

	g.view.ShowResult(result.Pretty())
	g.view.ShowStatus(msgUploaded, models.StatusSuccess)
	g.state = models.Uploaded
	g.view.SetQueryEnabled(true)
	log.Info("GATE: Upload succeeded")
	return nil
}

func (g *UploadGate) send(ctx context.Context, file *models.FileSelection) (*models.Result, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return g.service.UploadPDF(ctx, file.Name, rc)
}

// Query asks the service a question. The gate is checked before the
// question, and neither rejection reaches the network.
func (g *UploadGate) Query(ctx context.Context, question string) error {
	if !g.Uploaded() {
		g.view.Notify(msgUploadFirst)
		return ErrUploadRequired
	}
	if question == "" {
		g.view.Notify(msgEnterQuery)
		return ErrEmptyQuery
	}

	result, err := g.service.Query(ctx, question)

	g.mu.Lock()
	defer g.mu.Unlock()

	if err != nil {
		opErr := &OperationError{Op: OpQuery, Err: err}
		g.logger.WithError(err).Error("GATE: Query failed")
		g.view.ShowResult(opErr.Error())
		return opErr
	}

	g.view.ShowResult(result.Pretty())
	g.logger.Info("GATE: Query answered")
	return nil
}
