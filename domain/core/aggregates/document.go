package aggregates

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/identity"
	pkgerrors "github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/errors"
)

// DefaultPageName is the name of the page a fresh document starts with.
const DefaultPageName = "Factory"

// Document is the root aggregate of a plan: an ordered, never-empty list of
// pages, a current-page pointer, and the id generator every page draws from.
// Sharing one generator across pages is what keeps ids unique document-wide
// and makes cross-page moves safe without remapping.
type Document struct {
	idGen         *identity.IDGen
	pages         []*Page
	currentPageID string
}

// NewDocument creates a document seeded with one empty default page, which
// is also the current page.
func NewDocument() *Document {
	doc := &Document{idGen: identity.NewIDGen()}
	page, _ := NewPage(doc.idGen.Allocate(), DefaultPageName)
	doc.pages = []*Page{page}
	doc.currentPageID = page.ID()
	return doc
}

// IDGen returns the document's shared id generator. New entities must draw
// their ids from it.
func (d *Document) IDGen() *identity.IDGen {
	return d.idGen
}

// Pages returns the pages in document order. The slice is a copy, the page
// pointers are shared.
func (d *Document) Pages() []*Page {
	pages := make([]*Page, len(d.pages))
	copy(pages, d.pages)
	return pages
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.pages)
}

// Page returns the page with the given id.
func (d *Document) Page(id string) (*Page, error) {
	for _, page := range d.pages {
		if page.ID() == id {
			return page, nil
		}
	}
	return nil, pkgerrors.NewValidationError(fmt.Sprintf("page %s not found in document", id))
}

// PageIndex returns the position of the page with the given id, or -1.
func (d *Document) PageIndex(id string) int {
	for i, page := range d.pages {
		if page.ID() == id {
			return i
		}
	}
	return -1
}

// CurrentPageID returns the id of the current page.
func (d *Document) CurrentPageID() string {
	return d.currentPageID
}

// CurrentPage returns the current page.
func (d *Document) CurrentPage() *Page {
	page, _ := d.Page(d.currentPageID)
	return page
}

// SetCurrentPage makes the given page current. Fails if the page is not a
// member of the document.
func (d *Document) SetCurrentPage(id string) error {
	if d.PageIndex(id) < 0 {
		return pkgerrors.NewValidationError(fmt.Sprintf("page %s not found in document", id))
	}
	d.currentPageID = id
	return nil
}

// AddPage appends a page to the document.
func (d *Document) AddPage(page *Page) error {
	return d.AddPageAt(page, len(d.pages))
}

// AddPageAt inserts a page at the given position. Fails on a duplicate page
// id or an out-of-range index.
func (d *Document) AddPageAt(page *Page, index int) error {
	if page == nil {
		return pkgerrors.NewValidationError("page cannot be nil")
	}
	if d.PageIndex(page.ID()) >= 0 {
		return pkgerrors.NewConflictError(fmt.Sprintf("page %s already exists in document", page.ID()))
	}
	if index < 0 || index > len(d.pages) {
		return pkgerrors.NewValidationError(fmt.Sprintf("page index %d out of range [0, %d]", index, len(d.pages)))
	}
	d.pages = append(d.pages, nil)
	copy(d.pages[index+1:], d.pages[index:])
	d.pages[index] = page
	return nil
}

// RemovePage removes a page by id. The last remaining page can never be
// removed. If the removed page was current, the current pointer moves to the
// page now occupying the removed slot, or to the new last page when the
// removed page was last.
func (d *Document) RemovePage(id string) error {
	index := d.PageIndex(id)
	if index < 0 {
		return pkgerrors.NewValidationError(fmt.Sprintf("page %s not found in document", id))
	}
	if len(d.pages) == 1 {
		return pkgerrors.NewValidationError("document must contain at least one page")
	}
	d.pages = append(d.pages[:index], d.pages[index+1:]...)
	if d.currentPageID == id {
		if index >= len(d.pages) {
			index = len(d.pages) - 1
		}
		d.currentPageID = d.pages[index].ID()
	}
	return nil
}

// RenamePage sets a page's display name.
func (d *Document) RenamePage(id, name string) error {
	page, err := d.Page(id)
	if err != nil {
		return err
	}
	page.SetName(name)
	return nil
}

// SwapPages moves the page at from to position to, shifting the pages in
// between. Despite the name this is an array move, not an exchange:
// moving index 0 to index 2 in [A, B, C] yields [B, C, A].
func (d *Document) SwapPages(from, to int) error {
	if from < 0 || from >= len(d.pages) {
		return pkgerrors.NewValidationError(fmt.Sprintf("page index %d out of range [0, %d)", from, len(d.pages)))
	}
	if to < 0 || to >= len(d.pages) {
		return pkgerrors.NewValidationError(fmt.Sprintf("page index %d out of range [0, %d)", to, len(d.pages)))
	}
	if from == to {
		return nil
	}
	page := d.pages[from]
	if from < to {
		copy(d.pages[from:], d.pages[from+1:to+1])
	} else {
		copy(d.pages[to+1:], d.pages[to:from])
	}
	d.pages[to] = page
	return nil
}

// DuplicatePage clones a page through the document's own export/import path
// and inserts the clone right after the original. The clone gets fresh ids
// for the page and everything on it, and a "<name> copy"-style name that no
// other page in the document uses.
func (d *Document) DuplicatePage(id string) (*Page, error) {
	index := d.PageIndex(id)
	if index < 0 {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("page %s not found in document", id))
	}
	snapshot, err := d.ToJSON(WithPages(id))
	if err != nil {
		return nil, err
	}
	inserted, err := d.InsertPagesFromJSON(snapshot, PasteSourceDuplicate, index+1)
	if err != nil {
		return nil, err
	}
	clone := inserted[0]
	clone.SetName(d.copyName(clone.Name()))
	return clone, nil
}

var copySuffixPattern = regexp.MustCompile(`^(.*?) copy(?: \d+)?$`)

// copyName derives the name for a duplicated page: the source name with any
// existing " copy"/" copy N" suffix stripped, then " copy", " copy 2",
// " copy 3"... picking the first variant no page currently uses.
func (d *Document) copyName(name string) string {
	base := name
	if m := copySuffixPattern.FindStringSubmatch(name); m != nil {
		base = m[1]
	}
	candidate := base + " copy"
	for n := 2; d.pageNameInUse(candidate); n++ {
		candidate = fmt.Sprintf("%s copy %d", base, n)
	}
	return candidate
}

func (d *Document) pageNameInUse(name string) bool {
	for _, page := range d.pages {
		if page.Name() == name {
			return true
		}
	}
	return false
}

// InsertPagesFromJSON imports the pages of a serialized document into this
// one at the given index (-1 appends). Every id in the payload is remapped
// to a fresh local id through a single mapper, so imported content can never
// collide with existing content and internal references stay consistent.
// The payload's version and type are gated exactly like a full load; on any
// error no page is inserted.
func (d *Document) InsertPagesFromJSON(data []byte, source PasteSource, index int) ([]*Page, error) {
	var record documentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, pkgerrors.NewFormatError("payload is not a valid plan document").WithCause(err)
	}
	if err := checkFormat(record); err != nil {
		return nil, err
	}
	if len(record.Pages) == 0 {
		return nil, pkgerrors.NewValidationError("payload contains no pages")
	}
	if index < 0 {
		index = len(d.pages)
	}
	if index > len(d.pages) {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("page index %d out of range [0, %d]", index, len(d.pages)))
	}

	// Remap first, then reconstruct everything before touching the
	// document, so a malformed payload cannot leave it half-imported.
	mapper := identity.NewIDMapper(d.idGen)
	pages := make([]*Page, 0, len(record.Pages))
	for i := range record.Pages {
		record.Pages[i].remapIDs(mapper)
		page, err := pageFromRecord(record.Pages[i])
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}

	for i, page := range pages {
		if err := d.AddPageAt(page, index+i); err != nil {
			return nil, err
		}
	}
	for _, page := range pages {
		page.applyPasteAdjustment(mapper, source)
	}
	return pages, nil
}

// ExportOption narrows what ToJSON includes.
type ExportOption func(*exportOptions)

type exportOptions struct {
	pageIDs []string
}

// WithPages restricts the export to the given pages, in document order.
func WithPages(ids ...string) ExportOption {
	return func(o *exportOptions) {
		o.pageIDs = append(o.pageIDs, ids...)
	}
}

// ToJSON serializes the document. With WithPages the export contains only
// the selected pages and its currentPageId points at the first retained
// page, so the payload is a valid standalone document.
func (d *Document) ToJSON(opts ...ExportOption) ([]byte, error) {
	var options exportOptions
	for _, opt := range opts {
		opt(&options)
	}

	pages := d.pages
	currentPageID := d.currentPageID
	if options.pageIDs != nil {
		keep := make(map[string]bool, len(options.pageIDs))
		for _, id := range options.pageIDs {
			if d.PageIndex(id) < 0 {
				return nil, pkgerrors.NewValidationError(fmt.Sprintf("page %s not found in document", id))
			}
			keep[id] = true
		}
		filtered := make([]*Page, 0, len(keep))
		for _, page := range d.pages {
			if keep[page.ID()] {
				filtered = append(filtered, page)
			}
		}
		if len(filtered) == 0 {
			return nil, pkgerrors.NewValidationError("export must contain at least one page")
		}
		pages = filtered
		currentPageID = filtered[0].ID()
	}

	record := documentRecord{
		Version:       DocumentFormatVersion,
		Type:          DocumentFormatType,
		IDGen:         d.idGen,
		CurrentPageID: currentPageID,
		Pages:         make([]pageRecord, 0, len(pages)),
	}
	for _, page := range pages {
		record.Pages = append(record.Pages, page.toRecord())
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to serialize document", err)
	}
	return data, nil
}

// FromJSON deserializes a complete document, enforcing the format gates and
// the structural invariants of every page.
func FromJSON(data []byte) (*Document, error) {
	doc := &Document{}
	if err := doc.ReplaceFromJSON(data); err != nil {
		return nil, err
	}
	return doc, nil
}

// ReplaceFromJSON replaces the document's entire state with the payload.
// The new state is built completely before the swap, so on any error the
// document keeps its previous state. This is also how history restores run.
func (d *Document) ReplaceFromJSON(data []byte) error {
	var record documentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return pkgerrors.NewFormatError("payload is not a valid plan document").WithCause(err)
	}
	if err := checkFormat(record); err != nil {
		return err
	}
	if record.IDGen == nil {
		return pkgerrors.NewValidationError("document is missing id generator state")
	}
	if len(record.Pages) == 0 {
		return pkgerrors.NewValidationError("document must contain at least one page")
	}

	pages := make([]*Page, 0, len(record.Pages))
	seen := make(map[string]bool, len(record.Pages))
	for _, pr := range record.Pages {
		if seen[pr.ID] {
			return pkgerrors.NewValidationError(fmt.Sprintf("duplicate page id %s", pr.ID))
		}
		seen[pr.ID] = true
		page, err := pageFromRecord(pr)
		if err != nil {
			return err
		}
		pages = append(pages, page)
	}
	if !seen[record.CurrentPageID] {
		return pkgerrors.NewValidationError(fmt.Sprintf("current page %s not found in document", record.CurrentPageID))
	}

	d.idGen = record.IDGen
	d.pages = pages
	d.currentPageID = record.CurrentPageID
	return nil
}

// checkFormat enforces the version and type gates.
func checkFormat(record documentRecord) error {
	if record.Version != DocumentFormatVersion {
		return pkgerrors.NewFormatError(fmt.Sprintf(
			"unsupported document version %d (expected %d)", record.Version, DocumentFormatVersion))
	}
	if record.Type != DocumentFormatType {
		return pkgerrors.NewFormatError(fmt.Sprintf(
			"unsupported document type %q (expected %q)", record.Type, DocumentFormatType))
	}
	return nil
}

// AsJSON returns the document's full serialized state. Together with
// ApplyJSON it lets the history manager snapshot and restore the document
// without knowing its structure.
func (d *Document) AsJSON() (json.RawMessage, error) {
	return d.ToJSON()
}

// ApplyJSON replaces the document's state with a previously captured
// snapshot.
func (d *Document) ApplyJSON(data json.RawMessage) error {
	return d.ReplaceFromJSON(data)
}
