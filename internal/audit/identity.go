package audit

import (
	"fmt"
	"sort"

	"certaudit/pkg/contracts/domain"
)

// DefaultThreshold is the minimum similarity for two names to be treated as
// the same entity.
const DefaultThreshold = 60

const (
	MsgMissingTaxIDAndName = "Document missing both tax ID and name"
	MsgNoIdentifiableTaxID = "Document has name but no identifiable tax ID"
	msgInconsistentTmpl    = "Inconsistent name for same tax ID: found [%s] expected [%s]"
	msgResolvedTmpl        = "Document without tax ID, resolved to [%s]"
	msgAmbiguousTmpl       = "Document without tax ID; name [%s] may belong to tax ID [%s]"
)

// IdentityOptions configures Reconcile.
type IdentityOptions struct {
	IDField     domain.Field
	NameField   domain.Field
	ReportField domain.Field
	Threshold   int
	Similarity  Similarity
	// FuzzyFallback looks for tax IDs of similar names when a name has
	// none of its own.
	FuzzyFallback bool
}

func (o IdentityOptions) withDefaults() IdentityOptions {
	if o.IDField == "" {
		o.IDField = domain.FieldTaxID
	}
	if o.NameField == "" {
		o.NameField = domain.FieldName
	}
	if o.ReportField == "" {
		o.ReportField = domain.FieldURL
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Similarity == nil {
		o.Similarity = TokenSortRatio{}
	}
	return o
}

// reconciler holds the lookups built once per pass.
type reconciler struct {
	opts    IdentityOptions
	rows    []domain.Record
	order   []int
	idsOf   map[string][]string // name -> distinct non-blank tax IDs, ascending
	rowsOf  map[string][]int    // name -> row indexes
	names   []string            // distinct non-blank names, ascending
	results []domain.Finding
}

// Reconcile cross-checks tax IDs against names and returns a corrected copy
// of records together with its findings. Rows missing a tax ID are resolved
// from other rows carrying the exact same name when a single candidate
// exists. Rows sharing a tax ID, resolved ones included, are then compared
// with the first name of the run, so reconciling the output again reports
// nothing new. The input slice is never modified.
func Reconcile(records []domain.Record, opts IdentityOptions) ([]domain.Record, []domain.Finding) {
	rc := &reconciler{
		opts: opts.withDefaults(),
		rows: domain.CloneRecords(records),
	}
	rc.sortRows()
	rc.index()
	rc.resolveMissing()
	rc.sortRows()
	rc.checkRuns()
	return rc.rows, rc.results
}

func (rc *reconciler) id(i int) string   { return rc.rows[i].Get(rc.opts.IDField) }
func (rc *reconciler) name(i int) string { return rc.rows[i].Get(rc.opts.NameField) }
func (rc *reconciler) key(i int) string  { return rc.rows[i].Get(rc.opts.ReportField) }

// sortRows orders row indexes by (tax ID, name), blanks last, ties in
// input order.
func (rc *reconciler) sortRows() {
	rc.order = make([]int, len(rc.rows))
	for i := range rc.order {
		rc.order[i] = i
	}
	sort.SliceStable(rc.order, func(a, b int) bool {
		ia, ib := rc.order[a], rc.order[b]
		if c := compareBlankLast(rc.id(ia), rc.id(ib)); c != 0 {
			return c < 0
		}
		return compareBlankLast(rc.name(ia), rc.name(ib)) < 0
	})
}

func (rc *reconciler) index() {
	seen := make(map[string]map[string]bool)
	rc.idsOf = make(map[string][]string)
	rc.rowsOf = make(map[string][]int)
	for i := range rc.rows {
		n := rc.name(i)
		if n == "" {
			continue
		}
		if _, ok := rc.rowsOf[n]; !ok {
			rc.names = append(rc.names, n)
			seen[n] = make(map[string]bool)
		}
		rc.rowsOf[n] = append(rc.rowsOf[n], i)
		if id := rc.id(i); id != "" && !seen[n][id] {
			seen[n][id] = true
			rc.idsOf[n] = append(rc.idsOf[n], id)
		}
	}
	sort.Strings(rc.names)
	for _, ids := range rc.idsOf {
		sort.Strings(ids)
	}
}

// checkRuns compares every named row of a tax ID run with the run's
// reference name. Blank ids sort last, so runs end at the first blank.
func (rc *reconciler) checkRuns() {
	start := 0
	for start < len(rc.order) {
		first := rc.order[start]
		id := rc.id(first)
		if id == "" {
			return
		}
		end := start + 1
		for end < len(rc.order) && rc.id(rc.order[end]) == id {
			end++
		}

		refName := rc.name(first)
		for _, i := range rc.order[start+1 : end] {
			n := rc.name(i)
			if n == "" || refName == "" {
				continue
			}
			if rc.opts.Similarity.Score(n, refName) < rc.opts.Threshold {
				rc.add(i, fmt.Sprintf(msgInconsistentTmpl, n, refName), rc.key(first), domain.SeverityError)
			}
		}
		start = end
	}
}

func (rc *reconciler) resolveMissing() {
	done := make(map[string]bool)
	for _, i := range rc.order {
		if rc.id(i) != "" {
			continue
		}
		n := rc.name(i)
		if n == "" {
			rc.add(i, MsgMissingTaxIDAndName, "", domain.SeverityError)
			continue
		}
		if done[n] {
			continue
		}
		done[n] = true

		blanks := rc.blankRowsNamed(n)
		sources := []string{n}
		candidates := rc.idsOf[n]
		if len(candidates) == 0 && rc.opts.FuzzyFallback {
			sources, candidates = rc.similarCandidates(n)
		}

		switch len(candidates) {
		case 0:
			for _, b := range blanks {
				rc.add(b, MsgNoIdentifiableTaxID, "", domain.SeverityError)
			}
		case 1:
			resolved := candidates[0]
			ref := rc.maxKey(sources, resolved)
			for _, b := range blanks {
				rc.rows[b].Set(rc.opts.IDField, resolved)
				rc.add(b, fmt.Sprintf(msgResolvedTmpl, resolved), ref, domain.SeverityInfo)
			}
		default:
			for _, b := range blanks {
				for _, c := range candidates {
					rc.add(b, fmt.Sprintf(msgAmbiguousTmpl, n, c), rc.maxKey(sources, c), domain.SeverityError)
				}
			}
		}
	}
}

// blankRowsNamed lists the rows named n still missing a tax ID, in scan order.
func (rc *reconciler) blankRowsNamed(n string) []int {
	var out []int
	for _, i := range rc.order {
		if rc.id(i) == "" && rc.name(i) == n {
			out = append(out, i)
		}
	}
	return out
}

// similarCandidates returns the names scoring at least Threshold against n
// and the distinct tax IDs they carry.
func (rc *reconciler) similarCandidates(n string) ([]string, []string) {
	var names []string
	set := make(map[string]bool)
	for _, other := range rc.names {
		if other == n || rc.opts.Similarity.Score(n, other) < rc.opts.Threshold {
			continue
		}
		names = append(names, other)
		for _, id := range rc.idsOf[other] {
			set[id] = true
		}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return names, ids
}

// maxKey is the greatest report key among rows named in names carrying id.
func (rc *reconciler) maxKey(names []string, id string) string {
	best := ""
	for _, n := range names {
		for _, i := range rc.rowsOf[n] {
			if rc.id(i) == id && rc.key(i) > best {
				best = rc.key(i)
			}
		}
	}
	return best
}

func (rc *reconciler) add(i int, msg, ref string, sev domain.Severity) {
	rc.results = append(rc.results, domain.Finding{
		Check:     domain.CheckIdentity,
		ReportKey: rc.key(i),
		Message:   msg,
		RefKey:    ref,
		Severity:  sev,
	})
}

func compareBlankLast(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	case a < b:
		return -1
	}
	return 1
}
