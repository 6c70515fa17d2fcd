package results

import (
	"fmt"
	"io/ioutil"
	"math"
	"strings"
)

// Diversity is the campaign-level diversity statistic: how many structural
// clusters the designable backbones fall into, relative to their number.
// Zero designable backbones yield zero diversity.
func Diversity(clusters, designable int) float64 {
	if designable == 0 {
		return 0
	}
	return float64(clusters) / float64(designable)
}

// Summary formats the campaign report: the designability fraction as a
// percentage, the diversity and novelty statistics, and the identifier of
// what was evaluated. The tiny epsilon guards an empty campaign instead of
// failing on it. Diversity or novelty may be NaN, meaning the statistic was
// not computed; it is reported as NA.
func Summary(pdbCount, designable int, diversity, novelty float64, target string) string {
	fraction := float64(designable) / (float64(pdbCount) + 1e-6) * 100
	lines := []string{
		fmt.Sprintf("Designability: %.2f%%", fraction),
		fmt.Sprintf("Diversity: %s", statistic(diversity)),
		fmt.Sprintf("Novelty: %s", statistic(novelty)),
		fmt.Sprintf("Evaluated: %s", target),
	}
	return strings.Join(lines, "\n") + "\n"
}

// WriteSummary writes the campaign report to fpath.
func WriteSummary(fpath string, pdbCount, designable int, diversity, novelty float64, target string) error {
	body := Summary(pdbCount, designable, diversity, novelty, target)
	return ioutil.WriteFile(fpath, []byte(body), 0666)
}

func statistic(x float64) string {
	if math.IsNaN(x) {
		return "NA"
	}
	return fmt.Sprintf("%.3f", x)
}
