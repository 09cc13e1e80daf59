// ABOUTME: Admin CRUD endpoints: glossary terms, legal documents, professional records
// ABOUTME: Thin typed wrappers over the enveloped REST resources

package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// GlossaryTerm is a legal glossary entry managed through the admin screens.
type GlossaryTerm struct {
	ID         string    `json:"id"`
	Term       string    `json:"term"`
	Definition string    `json:"definition"`
	Category   string    `json:"category"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LegalDocument is a repository document record.
type LegalDocument struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DocType   string    `json:"doc_type"`
	Summary   string    `json:"summary"`
	FileURL   string    `json:"file_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Professional is a practitioner record subject to the approval workflow.
type Professional struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Registration string    `json:"registration"`
	Specialty    string    `json:"specialty"`
	Email        string    `json:"email"`
	Status       string    `json:"status"` // pending, approved, rejected
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func pageQuery(page, perPage int) url.Values {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}
	return query
}

// Glossary terms

func (c *Client) ListGlossaryTerms(ctx context.Context, page, perPage int) ([]GlossaryTerm, *Pagination, error) {
	var terms []GlossaryTerm
	pagination, err := c.do(ctx, http.MethodGet, "/glossary", pageQuery(page, perPage), nil, &terms)
	if err != nil {
		return nil, nil, err
	}
	return terms, pagination, nil
}

func (c *Client) CreateGlossaryTerm(ctx context.Context, term *GlossaryTerm) (*GlossaryTerm, error) {
	var created GlossaryTerm
	if _, err := c.do(ctx, http.MethodPost, "/glossary", nil, term, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateGlossaryTerm(ctx context.Context, term *GlossaryTerm) (*GlossaryTerm, error) {
	var updated GlossaryTerm
	if _, err := c.do(ctx, http.MethodPut, "/glossary/"+url.PathEscape(term.ID), nil, term, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteGlossaryTerm(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/glossary/"+url.PathEscape(id), nil, nil, nil)
	return err
}

// Legal documents

func (c *Client) ListLegalDocuments(ctx context.Context, page, perPage int) ([]LegalDocument, *Pagination, error) {
	var docs []LegalDocument
	pagination, err := c.do(ctx, http.MethodGet, "/documents", pageQuery(page, perPage), nil, &docs)
	if err != nil {
		return nil, nil, err
	}
	return docs, pagination, nil
}

func (c *Client) CreateLegalDocument(ctx context.Context, doc *LegalDocument) (*LegalDocument, error) {
	var created LegalDocument
	if _, err := c.do(ctx, http.MethodPost, "/documents", nil, doc, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateLegalDocument(ctx context.Context, doc *LegalDocument) (*LegalDocument, error) {
	var updated LegalDocument
	if _, err := c.do(ctx, http.MethodPut, "/documents/"+url.PathEscape(doc.ID), nil, doc, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteLegalDocument(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/documents/"+url.PathEscape(id), nil, nil, nil)
	return err
}

// Professionals

func (c *Client) ListProfessionals(ctx context.Context, page, perPage int) ([]Professional, *Pagination, error) {
	var pros []Professional
	pagination, err := c.do(ctx, http.MethodGet, "/professionals", pageQuery(page, perPage), nil, &pros)
	if err != nil {
		return nil, nil, err
	}
	return pros, pagination, nil
}

func (c *Client) CreateProfessional(ctx context.Context, pro *Professional) (*Professional, error) {
	var created Professional
	if _, err := c.do(ctx, http.MethodPost, "/professionals", nil, pro, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateProfessional(ctx context.Context, pro *Professional) (*Professional, error) {
	var updated Professional
	if _, err := c.do(ctx, http.MethodPut, "/professionals/"+url.PathEscape(pro.ID), nil, pro, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteProfessional(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/professionals/"+url.PathEscape(id), nil, nil, nil)
	return err
}

// ApproveProfessional moves a pending professional record to approved.
func (c *Client) ApproveProfessional(ctx context.Context, id string) (*Professional, error) {
	var updated Professional
	if _, err := c.do(ctx, http.MethodPost, "/professionals/"+url.PathEscape(id)+"/approve", nil, nil, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// RejectProfessional moves a pending professional record to rejected.
func (c *Client) RejectProfessional(ctx context.Context, id string, reason string) (*Professional, error) {
	body := map[string]string{"reason": reason}
	var updated Professional
	if _, err := c.do(ctx, http.MethodPost, "/professionals/"+url.PathEscape(id)+"/reject", nil, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
