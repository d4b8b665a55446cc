package certificates

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"training-backend/internal/mailer"
	"training-backend/internal/render"
)

// ===== インターフェース群 =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type certificateStore interface {
	CoursePolicy(ctx context.Context, courseID uint64) (coursePolicy, error)
	ListUncertified(ctx context.Context, courseID uint64) ([]enrollmentCount, error)
	Insert(ctx context.Context, c *Certificate) error
	ViewByCode(ctx context.Context, code string) (certificateDetail, error)
	ListByCourse(ctx context.Context, courseID uint64) ([]certificateDetail, error)
	ListUnsent(ctx context.Context, ids []uint64) ([]certificateDetail, error)
	MarkEmailed(ctx context.Context, ids []uint64, at time.Time) error
}

type pdfRenderer interface {
	CertificatePDF(ctx context.Context, v render.CertificateView) ([]byte, error)
}

type Options struct {
	MaxCodeAttempts int
	PublicBaseURL   string
	CompanyName     string
	CompanyURL      string
}

// ===== Service本体 =====

type Service struct {
	store  certificateStore
	pdf    pdfRenderer
	mail   mailer.Sender
	codes  CodeGen
	clock  Clock
	runIDs IDGen
	opts   Options
}

const defaultMaxCodeAttempts = 5

func NewService(conn *sql.DB, pdf *render.Renderer, mail mailer.Sender, opts Options) *Service {
	return newService(NewStore(conn), pdf, mail, NewCodeGen(), opts)
}

func newService(store certificateStore, pdf pdfRenderer, mail mailer.Sender, codes CodeGen, opts Options) *Service {
	if opts.MaxCodeAttempts <= 0 {
		opts.MaxCodeAttempts = defaultMaxCodeAttempts
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Service{
		store:  store,
		pdf:    pdf,
		mail:   mail,
		codes:  codes,
		clock:  realClock{},
		runIDs: ulidGen{},
		opts:   opts,
	}
}

func internal(op string, err error) error {
	var api *APIError
	if errors.As(err, &api) {
		return err
	}
	log.Printf("[ERROR] certificates.%s: %v", op, err)
	return ErrInternal("internal error")
}

func (s *Service) runID() string {
	id, err := s.runIDs.New()
	if err != nil {
		return "-"
	}
	return id
}

type issueOutcome int

const (
	issued issueOutcome = iota
	skipped
)

// issue は1件の証明書を挿入する。コード衝突時は新しいコードで再試行し、
// 上限に達したらエラーにする。
func (s *Service) issue(ctx context.Context, cert Certificate) (issueOutcome, int, error) {
	for attempt := 1; attempt <= s.opts.MaxCodeAttempts; attempt++ {
		code, err := s.codes.New()
		if err != nil {
			return 0, attempt, err
		}
		c := cert
		c.VerificationCode = code

		err = s.store.Insert(ctx, &c)
		switch {
		case err == nil:
			return issued, attempt, nil
		case errors.Is(err, ErrDuplicateCode):
			continue
		case errors.Is(err, ErrAlreadyIssued):
			return skipped, attempt, nil
		default:
			return 0, attempt, err
		}
	}
	return 0, s.opts.MaxCodeAttempts, fmt.Errorf("verification code collided %d times", s.opts.MaxCodeAttempts)
}

// POST /admin/courses/:id/certificates
func (s *Service) Generate(ctx context.Context, courseID uint64) (GenerateResponse, error) {
	policy, err := s.store.CoursePolicy(ctx, courseID)
	if err != nil {
		return GenerateResponse{}, internal("Generate", err)
	}
	pending, err := s.store.ListUncertified(ctx, courseID)
	if err != nil {
		return GenerateResponse{}, internal("Generate", err)
	}

	res := GenerateResponse{RunID: s.runID()}
	now := s.clock.Now()
	for _, e := range pending {
		outcome := Evaluate(policy.Policy, e.DaysAttended)
		if outcome == OutcomeNone {
			continue
		}
		cert := Certificate{
			EnrollmentID:    e.EnrollmentID,
			CertificateType: string(outcome),
			DaysAttended:    e.DaysAttended,
			TotalDays:       policy.NumDays,
			IssuedAt:        now,
		}
		result, attempts, err := s.issue(ctx, cert)
		if err != nil {
			res.Failed++
			log.Printf("[ERROR] certificate issue failed: run=%s course=%d enrollment=%d attempts=%d: %v",
				res.RunID, courseID, e.EnrollmentID, attempts, err)
			continue
		}
		switch result {
		case issued:
			res.Generated++
		case skipped:
			res.Skipped++
		}
	}

	log.Printf("[INFO] certificates generated: run=%s course=%d generated=%d skipped=%d failed=%d",
		res.RunID, courseID, res.Generated, res.Skipped, res.Failed)
	return res, nil
}

func (s *Service) lookup(ctx context.Context, code string) (certificateDetail, error) {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return certificateDetail{}, ErrNotFound("certificate not found")
	}
	d, err := s.store.ViewByCode(ctx, code)
	if err != nil {
		return certificateDetail{}, internal("lookup", err)
	}
	return d, nil
}

// GET /certificates/:code
func (s *Service) GetByCode(ctx context.Context, code string) (VerificationResponse, error) {
	d, err := s.lookup(ctx, code)
	if err != nil {
		return VerificationResponse{}, err
	}
	return d.toVerification(), nil
}

// GET /certificates/:code/pdf → (filename, body)
func (s *Service) PDF(ctx context.Context, code string) (string, []byte, error) {
	d, err := s.lookup(ctx, code)
	if err != nil {
		return "", nil, err
	}
	b, err := s.pdf.CertificatePDF(ctx, d.view())
	if err != nil {
		return "", nil, internal("PDF", err)
	}
	return "certificate-" + d.VerificationCode + ".pdf", b, nil
}

// GET /admin/courses/:id/certificates
func (s *Service) ListByCourse(ctx context.Context, courseID uint64) ([]CertificateListItem, error) {
	if _, err := s.store.CoursePolicy(ctx, courseID); err != nil {
		return nil, internal("ListByCourse", err)
	}
	rows, err := s.store.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, internal("ListByCourse", err)
	}
	out := make([]CertificateListItem, 0, len(rows))
	for _, d := range rows {
		out = append(out, d.toListItem())
	}
	return out, nil
}

// POST /admin/certificates/send
func (s *Service) Send(ctx context.Context, req SendRequest) (SendResponse, error) {
	if len(req.CertificateIDs) == 0 {
		return SendResponse{}, ErrInvalid("certificate_ids must not be empty")
	}
	seen := map[uint64]bool{}
	ids := make([]uint64, 0, len(req.CertificateIDs))
	for _, id := range req.CertificateIDs {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	certs, err := s.store.ListUnsent(ctx, ids)
	if err != nil {
		return SendResponse{}, internal("Send", err)
	}
	if len(certs) == 0 {
		return SendResponse{}, nil
	}

	runID := s.runID()
	res := SendResponse{Total: len(certs), RunID: runID}

	msgs := make([]mailer.Message, 0, len(certs))
	pending := make([]uint64, 0, len(certs))
	for _, c := range certs {
		m, err := mailer.CertificateEmail(mailer.CertificateEmailData{
			To:               c.AttendeeEmail,
			AttendeeName:     c.AttendeeName,
			CourseName:       c.CourseName,
			CertificateType:  c.CertificateType,
			DaysAttended:     c.DaysAttended,
			TotalDays:        c.TotalDays,
			VerificationCode: c.VerificationCode,
			VerifyURL:        s.opts.PublicBaseURL + "/cert/" + c.VerificationCode,
			CompanyName:      s.opts.CompanyName,
			CompanyURL:       s.opts.CompanyURL,
		})
		if err != nil {
			res.Failed++
			log.Printf("[ERROR] certificate email build failed: run=%s certificate=%d: %v", runID, c.CertificateID, err)
			continue
		}
		msgs = append(msgs, m)
		pending = append(pending, c.CertificateID)
	}

	sent := make([]uint64, 0, len(msgs))
	for i, r := range s.mail.Send(ctx, msgs) {
		if r.Sent() {
			sent = append(sent, pending[i])
			continue
		}
		res.Failed++
		log.Printf("[WARN] certificate email not sent: run=%s certificate=%d: %v", runID, pending[i], r.Err)
	}

	if err := s.store.MarkEmailed(ctx, sent, s.clock.Now()); err != nil {
		return SendResponse{}, internal("Send", err)
	}
	res.Sent = len(sent)
	log.Printf("[INFO] certificate emails: run=%s sent=%d failed=%d total=%d", runID, res.Sent, res.Failed, res.Total)
	return res, nil
}
