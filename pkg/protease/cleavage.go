package protease

import (
	"fmt"
	"math"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
)

// UnmodifiedPeptides returns the intervals p cuts protein into. specific is the protease whose
// sites bound SingleN/SingleC windows; when it is nil or p itself the windows are non-specific.
// A non-positive maxLength is unbounded.
func (p *Protease) UnmodifiedPeptides(protein *core.Protein, maxMissed int, imb InitiatorMethionineBehavior,
	minLength, maxLength int, specific *Protease) []*ProteolyticPeptide {
	if protein == nil || protein.Length() == 0 {
		return nil
	}
	if maxLength <= 0 {
		maxLength = math.MaxInt
	}
	if minLength < 1 {
		minLength = 1
	}
	if maxMissed < 0 {
		maxMissed = 0
	}

	d := &digester{
		protein:   protein,
		seq:       protein.BaseSequence,
		imb:       imb,
		maxMissed: maxMissed,
		minLength: minLength,
		maxLength: maxLength,
	}

	switch p.Specificity {
	case SingleN:
		if specific == nil || specific.Equal(p) {
			return d.nonSpecificN()
		}
		return d.singleN(specific.DigestionSiteIndices(d.seq))
	case SingleC:
		if specific == nil || specific.Equal(p) {
			return d.nonSpecificC()
		}
		return d.singleC(specific.DigestionSiteIndices(d.seq))
	case None:
		return d.topDown()
	case Full:
		return d.full(p.DigestionSiteIndices(d.seq))
	case Semi:
		return d.semi(p.DigestionSiteIndices(d.seq))
	}
	panic(fmt.Sprintf("protease: unreachable cleavage specificity %v", p.Specificity))
}

// digester holds the per-call state of one protein digestion.
type digester struct {
	protein   *core.Protein
	seq       string
	imb       InitiatorMethionineBehavior
	maxMissed int
	minLength int
	maxLength int
	out       []*ProteolyticPeptide
}

func (d *digester) add(start, end, missed int, spec CleavageSpecificity, description string) {
	d.out = append(d.out, &ProteolyticPeptide{
		Protein:         d.protein,
		OneBasedStart:   start,
		OneBasedEnd:     end,
		MissedCleavages: missed,
		Specificity:     spec,
		Description:     description,
	})
}

func (d *digester) valid(length int) bool {
	return ValidLength(length, d.minLength, d.maxLength)
}

func (d *digester) first() byte { return d.seq[0] }

// products returns the proteolysis products whose bounds lie inside the protein.
func (d *digester) products() []core.ProteolysisProduct {
	var out []core.ProteolysisProduct
	for _, pp := range d.protein.ProteolysisProducts {
		if pp.HasBounds() && pp.OneBasedBeginPosition <= pp.OneBasedEndPosition && pp.OneBasedEndPosition <= len(d.seq) {
			out = append(out, pp)
		}
	}
	return out
}

func (d *digester) isWholeProtein(pp core.ProteolysisProduct) bool {
	return pp.OneBasedBeginPosition == 1 && pp.OneBasedEndPosition == len(d.seq)
}

func (d *digester) full(sites []int) []*ProteolyticPeptide {
	first := d.first()
	products := d.products()

	for missed := 0; missed <= d.maxMissed; missed++ {
		for i := 0; i < len(sites)-missed-1; i++ {
			end := sites[i+missed+1]
			if RetainsFirstResidue(i, d.imb, first) && d.valid(end-sites[i]) {
				d.add(sites[i]+1, end, missed, Full, "full")
			}
			if CleavesInitiatorMethionine(i, d.imb, first) && sites[1] != 1 && d.valid(end-1) {
				d.add(2, end, missed, Full, "full:M cleaved")
			}
		}

		for _, pp := range products {
			if d.isWholeProtein(pp) {
				continue
			}
			begin, end := pp.OneBasedBeginPosition, pp.OneBasedEndPosition

			idx := 0
			for sites[idx] < begin {
				idx++
			}
			if idx+missed < len(sites) &&
				sites[idx+missed] <= end &&
				!containsSite(sites, begin-1) &&
				(begin != 1 || !CleavesInitiatorMethionine(0, d.imb, first)) &&
				d.valid(sites[idx+missed]-begin+1) {
				d.add(begin, sites[idx+missed], missed, Full, pp.Type+" start")
			}

			for sites[idx] < end {
				idx++
			}
			if idx-missed-1 >= 0 &&
				sites[idx-missed-1]+1 >= begin &&
				!containsSite(sites, end) &&
				d.valid(end-sites[idx-missed-1]) {
				d.add(sites[idx-missed-1]+1, end, missed, Full, pp.Type+" end")
			}
		}
	}

	// intact proteolysis products
	for _, pp := range products {
		begin, end := pp.OneBasedBeginPosition, pp.OneBasedEndPosition
		if (begin != 1 || !CleavesInitiatorMethionine(0, d.imb, first)) &&
			!containsSite(sites, begin-1) &&
			!containsSite(sites, end) {
			firstCleavage := 0
			for sites[firstCleavage] < begin {
				firstCleavage++
			}
			lastCleavage := firstCleavage
			for sites[lastCleavage] < end {
				lastCleavage++
			}
			if lastCleavage-firstCleavage < d.maxMissed && d.valid(end-begin+1) {
				d.add(begin, end, lastCleavage-firstCleavage, Full, pp.Type+" end")
			}
		}
	}

	return d.out
}

func (d *digester) semi(sites []int) []*ProteolyticPeptide {
	first := d.first()

	// windows spanning maxMissed+1 sites; shorter tails are finished by the fringe loops
	for i := 0; i < len(sites)-d.maxMissed-1; i++ {
		ret := RetainsFirstResidue(i, d.imb, first)
		clv := CleavesInitiatorMethionine(i, d.imb, first) && sites[1] != 1
		cTerminus := sites[i+d.maxMissed+1]
		local := sites[i : i+d.maxMissed+1]
		if ret {
			d.fixedTermini(sites, sites[i], cTerminus, clv, ret, local)
		}
		if clv {
			d.fixedTermini(sites, 1, cTerminus, clv, ret, local)
		}
	}

	last := len(sites) - 1
	maxIndex := min(d.maxMissed, last)

	// fringe C-terminal peptides
	for i := 1; i <= maxIndex; i++ {
		nTerminus := sites[last-i]
		cTerminus := sites[last]
		local := sites[last-i+1 : last+1]
		for j := cTerminus; j > nTerminus; j-- {
			if !d.valid(j - nTerminus) {
				continue
			}
			if containsSite(local, j) {
				d.add(nTerminus+1, j, SitesWithin(sites, nTerminus+1, j), Full, "full")
			} else {
				d.add(nTerminus+1, j, SitesWithin(sites, nTerminus+1, j), Semi, "semi")
			}
		}
	}

	// fringe N-terminal peptides
	for i := 1; i <= maxIndex; i++ {
		nTerminus := sites[0]
		if d.imb != Retain {
			nTerminus++
		}
		cTerminus := sites[i]
		local := sites[1:i]
		for j := nTerminus + 1; j < cTerminus; j++ {
			if d.valid(cTerminus-j) && !containsSite(local, j) {
				d.add(j+1, cTerminus, SitesWithin(sites, j+1, cTerminus), Semi, "semi")
			}
		}
	}

	for _, pp := range d.products() {
		if d.isWholeProtein(pp) {
			continue
		}
		begin, end := pp.OneBasedBeginPosition, pp.OneBasedEndPosition

		i := 0
		for sites[i] < begin {
			i++
		}
		for j := begin; j < sites[i]; j++ {
			if d.valid(j - begin + 1) {
				d.add(begin, j, SitesWithin(sites, begin, j), Full, pp.Type+" start")
			}
		}

		for sites[i] < end {
			i++
		}
		// step back to the site before the product end unless the end is itself a site
		if sites[i] != end {
			i--
		}
		for j := sites[i] + 1; j < end; j++ {
			if d.valid(end - j + 1) {
				d.add(j, end, SitesWithin(sites, j, end), Full, pp.Type+" end")
			}
		}
	}

	return d.out
}

// fixedTermini emits, for the window (nTerminus, cTerminus], the full interval plus every
// interval that keeps one of the two ends fixed.
func (d *digester) fixedTermini(sites []int, nTerminus, cTerminus int, clv, ret bool, local []int) {
	suffix := ""
	if clv {
		suffix = ":M cleaved"
	}
	preventDuplicateMethionine := nTerminus == 1 && clv && ret

	if !preventDuplicateMethionine && d.valid(cTerminus-nTerminus) {
		d.add(nTerminus+1, cTerminus, SitesWithin(sites, nTerminus+1, cTerminus), Full, "full"+suffix)
	}

	// fixed C-terminus
	if !preventDuplicateMethionine {
		for j := nTerminus + 1; j < cTerminus; j++ {
			if !d.valid(cTerminus - j) {
				continue
			}
			missed := SitesWithin(sites, j+1, cTerminus)
			switch {
			case j == 1 && clv:
				d.add(j+1, cTerminus, missed, Full, "full:M cleaved")
			case containsSite(local, j):
				// covered by the window starting at this site
			default:
				d.add(j+1, cTerminus, missed, Semi, "semi"+suffix)
			}
		}
	}

	// fixed N-terminus
	for j := nTerminus + 1; j < cTerminus; j++ {
		if !d.valid(j - nTerminus) {
			continue
		}
		missed := SitesWithin(sites, nTerminus+1, j)
		if containsSite(local, j) {
			d.add(nTerminus+1, j, missed, Full, "full"+suffix)
		} else {
			d.add(nTerminus+1, j, missed, Semi, "semi"+suffix)
		}
	}
}

func (d *digester) topDown() []*ProteolyticPeptide {
	first := d.first()
	length := len(d.seq)

	if (d.imb != Cleave || first != 'M') && d.valid(length) {
		d.add(1, length, 0, Full, "full")
	}
	if d.imb != Retain && first == 'M' && length > 1 && d.valid(length-1) {
		d.add(2, length, 0, Full, "full:M cleaved")
	}

	for _, pp := range d.products() {
		if d.valid(pp.OneBasedEndPosition - pp.OneBasedBeginPosition + 1) {
			d.add(pp.OneBasedBeginPosition, pp.OneBasedEndPosition, 0, None, pp.Type)
		}
	}
	return d.out
}

func (d *digester) proteinStart() int {
	if RetainsFirstResidue(0, d.imb, d.first()) {
		return 1
	}
	return 2
}

// capEnd returns min(limit, start+maxLength-1) without overflowing.
func capEnd(start, maxLength, limit int) int {
	if maxLength > limit-start {
		return limit
	}
	return start + maxLength - 1
}

func (d *digester) nonSpecificN() []*ProteolyticPeptide {
	length := len(d.seq)
	for start := d.proteinStart(); start <= length; start++ {
		if validMinLength(length-start+1, d.minLength) {
			d.add(start, capEnd(start, d.maxLength, length), 0, Unknown, "SingleN")
		}
	}
	return d.out
}

func (d *digester) nonSpecificC() []*ProteolyticPeptide {
	proteinStart := d.proteinStart()
	for end := 1; end <= len(d.seq); end++ {
		if validMinLength(end-proteinStart+1, d.minLength) {
			d.add(max(proteinStart, end-d.maxLength+1), end, 0, Unknown, "SingleC")
		}
	}
	return d.out
}

// singleN slides a window anchored on the N-terminal side across each run of maxMissed+1
// specific sites, cropping to maxLength.
func (d *digester) singleN(sites []int) []*ProteolyticPeptide {
	proteinStart := d.proteinStart()
	sites[0] = proteinStart - 1
	shift := d.maxMissed + 1

	for i := 0; i < len(sites)-shift; i++ {
		start := sites[i]
		endSite := sites[i+shift]
		if endSite-start < d.minLength {
			continue
		}
		end := endSite
		if endSite-start > d.maxLength {
			end = start + d.maxLength
		}
		nextStart := sites[i+1] + 1
		for ; start+1 < nextStart && end-start >= d.minLength; start++ {
			d.add(start+1, end, SitesWithin(sites, start+1, end), Unknown, "SingleN")
			if end != endSite {
				end++
			}
		}
	}

	// wrap up the C-terminus
	if len(sites) < shift {
		shift = len(sites)
	}
	lastStart := sites[len(sites)-shift] + 1
	proteinEnd := sites[len(sites)-1]
	lastEnd := capEnd(lastStart, d.maxLength, proteinEnd)
	for ; lastStart+d.minLength-1 <= lastEnd; lastStart++ {
		d.add(lastStart, lastEnd, SitesWithin(sites, lastStart, lastEnd), Unknown, "SingleN")
		if lastEnd != proteinEnd {
			lastEnd++
		}
	}
	return d.out
}

// singleC mirrors singleN with the window anchored on the C-terminal side.
func (d *digester) singleC(sites []int) []*ProteolyticPeptide {
	proteinStart := d.proteinStart()
	sites[0] = proteinStart - 1
	shift := d.maxMissed + 1

	for i := len(sites) - 1; i > shift; i-- {
		end := sites[i]
		startSite := sites[i-shift]
		if end-startSite < d.minLength {
			continue
		}
		start := startSite
		if end-startSite > d.maxLength {
			start = end - d.maxLength
		}
		nextEnd := sites[i-1]
		for ; end > nextEnd && end-start >= d.minLength; end-- {
			d.add(start+1, end, SitesWithin(sites, start+1, end), Unknown, "SingleC")
			if start != startSite {
				start--
			}
		}
	}

	// wrap up the N-terminus
	if len(sites) <= shift {
		shift = len(sites) - 1
	}
	lastEnd := sites[shift]
	start := max(proteinStart, lastEnd-d.maxLength+1)
	for ; lastEnd >= start+d.minLength-1; lastEnd-- {
		d.add(start, lastEnd, SitesWithin(sites, start, lastEnd), Unknown, "SingleC")
		if start != proteinStart {
			start--
		}
	}
	return d.out
}
