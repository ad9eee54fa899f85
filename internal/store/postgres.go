package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vivatura/translator/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Languages ---

func (s *PostgresStore) GetLanguage(ctx context.Context, id uuid.UUID) (*models.Language, error) {
	var l models.Language
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, locale_code FROM languages WHERE id = $1`, id,
	).Scan(&l.ID, &l.Name, &l.LocaleCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get language: %w", err)
	}
	return &l, nil
}

func (s *PostgresStore) GetLanguageIDByLocale(ctx context.Context, locale string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM languages WHERE locale_code = $1`, locale,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("get language by locale: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListLanguages(ctx context.Context) ([]*models.Language, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, locale_code FROM languages ORDER BY name, locale_code`)
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	defer rows.Close()

	var langs []*models.Language
	for rows.Next() {
		var l models.Language
		if err := rows.Scan(&l.ID, &l.Name, &l.LocaleCode); err != nil {
			return nil, fmt.Errorf("scan language: %w", err)
		}
		langs = append(langs, &l)
	}
	return langs, rows.Err()
}

// --- Prompt overrides ---

func (s *PostgresStore) GetPromptOverride(ctx context.Context, languageID uuid.UUID) (string, error) {
	var prompt string
	err := s.pool.QueryRow(ctx,
		`SELECT system_prompt FROM language_prompts WHERE language_id = $1`, languageID,
	).Scan(&prompt)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get prompt override: %w", err)
	}
	return prompt, nil
}

// --- Products ---

// productColumns maps product field keys to product_translations columns.
var productColumns = map[string]string{
	"name":            "name",
	"description":     "description",
	"metaTitle":       "meta_title",
	"metaDescription": "meta_description",
	"keywords":        "keywords",
	"packUnit":        "pack_unit",
	"packUnitPlural":  "pack_unit_plural",
}

const customFieldPrefix = "customFields."

func (s *PostgresStore) GetProduct(ctx context.Context, id, languageID uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := s.pool.QueryRow(ctx,
		`SELECT p.id, p.product_number,
		        COALESCE(pt.name, ''), COALESCE(pt.description, ''),
		        COALESCE(pt.meta_title, ''), COALESCE(pt.meta_description, ''),
		        COALESCE(pt.keywords, ''), COALESCE(pt.pack_unit, ''), COALESCE(pt.pack_unit_plural, ''),
		        COALESCE(pt.custom_fields, '{}'::jsonb)
		 FROM products p
		 LEFT JOIN product_translations pt ON pt.product_id = p.id AND pt.language_id = $2
		 WHERE p.id = $1`, id, languageID,
	).Scan(&p.ID, &p.ProductNumber, &p.Name, &p.Description, &p.MetaTitle, &p.MetaDescription,
		&p.Keywords, &p.PackUnit, &p.PackUnitPlural, &p.CustomFields)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// WriteProductTranslation upserts the language row of a product. Fixed fields
// are set column by column; "customFields.<name>" keys are merged into the
// existing custom_fields object.
func (s *PostgresStore) WriteProductTranslation(ctx context.Context, id, languageID uuid.UUID, fields map[string]string) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	columns := []string{"product_id", "language_id"}
	args := []any{id, languageID}
	custom := map[string]string{}
	for _, k := range keys {
		if name, ok := strings.CutPrefix(k, customFieldPrefix); ok && name != "" {
			custom[name] = fields[k]
			continue
		}
		col, ok := productColumns[k]
		if !ok {
			return fmt.Errorf("write product translation: unknown field %q", k)
		}
		columns = append(columns, col)
		args = append(args, fields[k])
	}

	customJSON, err := json.Marshal(custom)
	if err != nil {
		return fmt.Errorf("encode custom fields: %w", err)
	}
	columns = append(columns, "custom_fields")
	args = append(args, string(customJSON))

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	placeholders[len(placeholders)-1] += "::jsonb"

	updates := make([]string, 0, len(columns))
	for _, col := range columns[2 : len(columns)-1] {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	updates = append(updates,
		"custom_fields = product_translations.custom_fields || EXCLUDED.custom_fields",
		"updated_at = NOW()")

	query := fmt.Sprintf(
		`INSERT INTO product_translations (%s) VALUES (%s)
		 ON CONFLICT (product_id, language_id) DO UPDATE SET %s`,
		strings.Join(columns, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		if isForeignKeyError(err) {
			return ErrNotFound
		}
		return fmt.Errorf("write product translation: %w", err)
	}
	return nil
}

// --- CMS pages ---

func (s *PostgresStore) GetCmsPage(ctx context.Context, id, languageID uuid.UUID) (*models.CmsPage, error) {
	page := models.CmsPage{}
	err := s.pool.QueryRow(ctx,
		`SELECT p.id, p.type, COALESCE(t.name, '')
		 FROM cms_pages p
		 LEFT JOIN cms_page_translations t ON t.cms_page_id = p.id AND t.language_id = $2
		 WHERE p.id = $1`, id, languageID,
	).Scan(&page.ID, &page.Type, &page.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cms page: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT sec.id, b.id, sl.id, sl.type, COALESCE(st.config, '{}'::jsonb)
		 FROM cms_sections sec
		 JOIN cms_blocks b ON b.cms_section_id = sec.id
		 JOIN cms_slots sl ON sl.cms_block_id = b.id
		 LEFT JOIN cms_slot_translations st ON st.cms_slot_id = sl.id AND st.language_id = $2
		 WHERE sec.cms_page_id = $1
		 ORDER BY sec.position, sec.id, b.position, b.id, sl.position, sl.id`, id, languageID)
	if err != nil {
		return nil, fmt.Errorf("get cms slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sectionID, blockID uuid.UUID
		var slot models.CmsSlot
		if err := rows.Scan(&sectionID, &blockID, &slot.ID, &slot.Type, &slot.Config); err != nil {
			return nil, fmt.Errorf("scan cms slot: %w", err)
		}
		appendSlot(&page, sectionID, blockID, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get cms slots: %w", err)
	}
	return &page, nil
}

// appendSlot adds slot to the page, opening a new section or block whenever
// the ordered rows move on to one.
func appendSlot(page *models.CmsPage, sectionID, blockID uuid.UUID, slot models.CmsSlot) {
	n := len(page.Sections)
	if n == 0 || page.Sections[n-1].ID != sectionID {
		page.Sections = append(page.Sections, models.CmsSection{ID: sectionID})
		n++
	}
	section := &page.Sections[n-1]

	m := len(section.Blocks)
	if m == 0 || section.Blocks[m-1].ID != blockID {
		section.Blocks = append(section.Blocks, models.CmsBlock{ID: blockID})
		m++
	}
	block := &section.Blocks[m-1]
	block.Slots = append(block.Slots, slot)
}

func (s *PostgresStore) WriteCmsPageName(ctx context.Context, id, languageID uuid.UUID, name string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cms_page_translations (cms_page_id, language_id, name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (cms_page_id, language_id) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()`,
		id, languageID, name)
	if err != nil {
		if isForeignKeyError(err) {
			return ErrNotFound
		}
		return fmt.Errorf("write cms page name: %w", err)
	}
	return nil
}

func (s *PostgresStore) WriteSlotConfig(ctx context.Context, slotID, languageID uuid.UUID, config map[string]any) error {
	data, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("encode slot config: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO cms_slot_translations (cms_slot_id, language_id, config)
		 VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (cms_slot_id, language_id) DO UPDATE SET config = EXCLUDED.config, updated_at = NOW()`,
		slotID, languageID, string(data))
	if err != nil {
		if isForeignKeyError(err) {
			return ErrNotFound
		}
		return fmt.Errorf("write slot config: %w", err)
	}
	return nil
}

// --- Snippets ---

func (s *PostgresStore) GetSnippetSet(ctx context.Context, id uuid.UUID) (*models.SnippetSet, error) {
	var set models.SnippetSet
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, iso FROM snippet_sets WHERE id = $1`, id,
	).Scan(&set.ID, &set.Name, &set.Iso)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snippet set: %w", err)
	}
	return &set, nil
}

func (s *PostgresStore) GetSnippet(ctx context.Context, id uuid.UUID) (*models.Snippet, error) {
	var sn models.Snippet
	err := s.pool.QueryRow(ctx,
		`SELECT id, set_id, translation_key, value, author FROM snippets WHERE id = $1`, id,
	).Scan(&sn.ID, &sn.SetID, &sn.TranslationKey, &sn.Value, &sn.Author)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snippet: %w", err)
	}
	return &sn, nil
}

func (s *PostgresStore) ListSnippets(ctx context.Context, setID uuid.UUID, ids []uuid.UUID) ([]*models.Snippet, error) {
	query := `SELECT id, set_id, translation_key, value, author FROM snippets WHERE set_id = $1`
	args := []any{setID}
	if len(ids) > 0 {
		query += ` AND id = ANY($2)`
		args = append(args, ids)
	}
	query += ` ORDER BY translation_key`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snippets: %w", err)
	}
	defer rows.Close()

	var snippets []*models.Snippet
	for rows.Next() {
		var sn models.Snippet
		if err := rows.Scan(&sn.ID, &sn.SetID, &sn.TranslationKey, &sn.Value, &sn.Author); err != nil {
			return nil, fmt.Errorf("scan snippet: %w", err)
		}
		snippets = append(snippets, &sn)
	}
	return snippets, rows.Err()
}

// UpsertSnippet sets the value of translationKey in setID, creating the
// snippet with SnippetAuthor when it does not exist yet.
func (s *PostgresStore) UpsertSnippet(ctx context.Context, translationKey string, setID uuid.UUID, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO snippets (id, set_id, translation_key, value, author)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (translation_key, set_id) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		uuid.New(), setID, translationKey, value, SnippetAuthor)
	if err != nil {
		if isForeignKeyError(err) {
			return ErrNotFound
		}
		return fmt.Errorf("upsert snippet: %w", err)
	}
	return nil
}

// --- Jobs ---

const jobColumns = `id, type, entity_id, target_language_ids, params, status, result, started_at, finished_at, created_at, updated_at`

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	targets := job.TargetLanguageIDs
	if targets == nil {
		targets = []uuid.UUID{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO translation_jobs (id, type, entity_id, target_language_ids, params, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8)`,
		job.ID, job.Type, job.EntityID, targets, nullableJSON(job.Params), job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	j, err := scanJob(s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM translation_jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func (s *PostgresStore) GetJobs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Job, error) {
	jobs := make(map[uuid.UUID]*models.Job, len(ids))
	if len(ids) == 0 {
		return jobs, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT `+jobColumns+` FROM translation_jobs WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get jobs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs[j.ID] = j
	}
	return jobs, rows.Err()
}

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	var params, result []byte
	if err := row.Scan(&j.ID, &j.Type, &j.EntityID, &j.TargetLanguageIDs, &params, &j.Status, &result,
		&j.StartedAt, &j.FinishedAt, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	if len(params) > 0 {
		j.Params = json.RawMessage(params)
	}
	if len(result) > 0 {
		j.Result = json.RawMessage(result)
	}
	return &j, nil
}

var validTransitions = map[string][]string{
	models.JobStatusPending:    {models.JobStatusProcessing, models.JobStatusFailed},
	models.JobStatusProcessing: {models.JobStatusCompleted, models.JobStatusFailed},
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error {
	params := NewJobUpdate(opts...)

	// Fetch current status
	var currentStatus string
	err := s.pool.QueryRow(ctx, `SELECT status FROM translation_jobs WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get job status: %w", err)
	}

	// Validate transition
	allowed := validTransitions[currentStatus]
	valid := false
	for _, a := range allowed {
		if a == status {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, currentStatus, status)
	}

	now := time.Now().UTC()
	query := `UPDATE translation_jobs SET status = $2, updated_at = $3`
	args := []any{id, status, now}
	argIdx := 4

	if status == models.JobStatusProcessing {
		query += fmt.Sprintf(", started_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if status == models.JobStatusCompleted || status == models.JobStatusFailed {
		query += fmt.Sprintf(", finished_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if params.Result != nil {
		query += fmt.Sprintf(", result = $%d::jsonb", argIdx)
		args = append(args, string(params.Result))
		argIdx++
	}

	// Guard against a concurrent transition since the read above.
	query += fmt.Sprintf(" WHERE id = $1 AND status = $%d", argIdx)
	args = append(args, currentStatus)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, currentStatus)
	}
	return nil
}

func nullableJSON(b json.RawMessage) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

func isForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503" // foreign_key_violation
	}
	return false
}

var _ Store = (*PostgresStore)(nil)
