package mood

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
)

// ClassReport holds per-class scores. A class never predicted has zero
// precision; one never seen has zero recall.
type ClassReport struct {
	Label     Label
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report summarizes how a classifier does on labelled samples.
type Report struct {
	Samples int
	Correct int
	Classes []ClassReport
	// Confusion counts predictions per true label.
	Confusion map[Label]map[Label]int
}

// Accuracy is the share of samples predicted correctly.
func (r Report) Accuracy() float64 {
	if r.Samples == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Samples)
}

// Evaluate runs c over samples exactly as a chat turn would, including the
// neutral fallback, and scores the predictions.
func Evaluate(c *Classifier, samples []Sample) Report {
	r := Report{Samples: len(samples), Confusion: make(map[Label]map[Label]int)}

	truePos := make(map[Label]int)
	predicted := make(map[Label]int)
	support := make(map[Label]int)
	for _, s := range samples {
		got := c.Predict(s.Text)
		if r.Confusion[s.Label] == nil {
			r.Confusion[s.Label] = make(map[Label]int)
		}
		r.Confusion[s.Label][got]++
		support[s.Label]++
		predicted[got]++
		if got == s.Label {
			r.Correct++
			truePos[s.Label]++
		}
	}

	labels := make([]Label, 0, len(support))
	for l := range support {
		labels = append(labels, l)
	}
	slices.Sort(labels)

	for _, l := range labels {
		cr := ClassReport{Label: l, Support: support[l]}
		if predicted[l] > 0 {
			cr.Precision = float64(truePos[l]) / float64(predicted[l])
		}
		cr.Recall = float64(truePos[l]) / float64(support[l])
		if cr.Precision+cr.Recall > 0 {
			cr.F1 = 2 * cr.Precision * cr.Recall / (cr.Precision + cr.Recall)
		}
		r.Classes = append(r.Classes, cr)
	}
	return r
}

// Write prints the accuracy and a per-class table.
func (r Report) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Accuracy: %.2f (%d/%d)\n", r.Accuracy(), r.Correct, r.Samples)
	fmt.Fprintln(tw, "mood\tprecision\trecall\tf1\tsupport")
	for _, c := range r.Classes {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%d\n", c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	return tw.Flush()
}

// Split holds out about fraction of each label's samples for evaluation.
// Every k-th sample of a label goes to the held-out set, so the split is
// stable for a given file. A fraction outside (0, 1) holds out nothing.
func Split(samples []Sample, fraction float64) (train, test []Sample) {
	if fraction <= 0 || fraction >= 1 {
		return slices.Clone(samples), nil
	}
	k := max(2, int(1/fraction+0.5))

	seen := make(map[Label]int)
	for _, s := range samples {
		seen[s.Label]++
		if seen[s.Label]%k == 0 {
			test = append(test, s)
		} else {
			train = append(train, s)
		}
	}
	return train, test
}
