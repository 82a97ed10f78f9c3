package grpcserver

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"triage/domain/triage"
	"triage/service"
)

// Server adapts TriageService to gRPC.
type Server struct {
	svc *service.TriageService
	log zerolog.Logger
}

func NewServer(svc *service.TriageService, log zerolog.Logger) *Server {
	return &Server{svc: svc, log: log}
}

var _ TriageServer = (*Server)(nil)

// -------------------- Commands --------------------

func (s *Server) Register(
	ctx context.Context,
	req *RegisterRequest,
) (*RegisterResponse, error) {
	p, err := s.svc.Register(req.Name, triage.Severity(req.Severity), req.Note)
	if err != nil {
		var verr *triage.ValidationError
		if errors.As(err, &verr) {
			return &RegisterResponse{
				Status: "rejected",
				Error:  verr.Error(),
			}, nil
		}
		return nil, err
	}

	s.log.Debug().
		Uint64("patient_id", p.ID).
		Str("severity", p.Severity.String()).
		Msg("[gRPC] Register")

	return &RegisterResponse{
		Status:  "ok",
		Patient: toEntry(p),
	}, nil
}

func (s *Server) Serve(
	ctx context.Context,
	_ *Empty,
) (*PatientResponse, error) {
	return toPatientResponse(s.svc.Serve()), nil
}

func (s *Server) UndoLastServe(
	ctx context.Context,
	_ *Empty,
) (*PatientResponse, error) {
	return toPatientResponse(s.svc.UndoLastServe()), nil
}

// -------------------- Queries --------------------

func (s *Server) PeekNext(
	ctx context.Context,
	_ *Empty,
) (*PatientResponse, error) {
	return toPatientResponse(s.svc.PeekNext()), nil
}

func (s *Server) WaitingSnapshot(
	ctx context.Context,
	_ *Empty,
) (*SnapshotResponse, error) {
	return toSnapshotResponse(s.svc.WaitingSnapshot()), nil
}

func (s *Server) ServedHistory(
	ctx context.Context,
	_ *Empty,
) (*SnapshotResponse, error) {
	return toSnapshotResponse(s.svc.ServedHistory()), nil
}

func (s *Server) Counts(
	ctx context.Context,
	_ *Empty,
) (*CountsResponse, error) {
	counts := s.svc.Counts()

	resp := &CountsResponse{
		Counts: make(map[int]int, len(counts)),
	}
	for sev, n := range counts {
		resp.Counts[int(sev)] = n
	}
	return resp, nil
}

// -------------------- Converters --------------------

func toEntry(p *triage.Patient) *PatientEntry {
	return &PatientEntry{
		Id:            p.ID,
		Name:          p.Name,
		Severity:      int(p.Severity),
		SeverityLabel: p.Severity.String(),
		ArrivedAt:     p.ArrivedAt.UnixNano(),
		Note:          p.Note,
	}
}

func toPatientResponse(p *triage.Patient) *PatientResponse {
	if p == nil {
		return &PatientResponse{Found: false}
	}
	return &PatientResponse{Found: true, Patient: toEntry(p)}
}

func toSnapshotResponse(patients []*triage.Patient) *SnapshotResponse {
	resp := &SnapshotResponse{
		Patients: make([]*PatientEntry, 0, len(patients)),
	}
	for _, p := range patients {
		resp.Patients = append(resp.Patients, toEntry(p))
	}
	return resp
}
