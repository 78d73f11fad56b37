// Package report renders a WeatherRecord as console text: a bordered summary
// for operators and a #define block to paste into the ESP32 irrigation
// firmware.
package report

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/JeffeSouza/fiap-wokwi-iot/internal/models"
)

const ruleWidth = 60

var rule = strings.Repeat("=", ruleWidth)

type advice struct {
	marker     string
	suggestion string
	comment    string
	flag       string
	flagValue  bool
}

var adviceByTier = map[models.Recommendation]advice{
	models.RecommendationOff: {
		marker:     "[X]",
		suggestion: "Turn irrigation off to save water",
		comment:    "RECOMMENDATION: turn irrigation off (rain expected)",
		flag:       "rain_expected",
		flagValue:  true,
	},
	models.RecommendationReduce: {
		marker:     "[!]",
		suggestion: "Cut irrigation time by 50%",
		comment:    "RECOMMENDATION: reduce irrigation (rain possible)",
		flag:       "rain_expected_moderate",
		flagValue:  true,
	},
	models.RecommendationNormal: {
		marker:     "[OK]",
		suggestion: "Keep irrigating according to soil sensors",
		comment:    "RECOMMENDATION: normal irrigation",
		flag:       "rain_expected",
		flagValue:  false,
	},
}

// adviceFor falls back to NORMAL for a record that was never enriched.
func adviceFor(r models.Recommendation) advice {
	if a, ok := adviceByTier[r]; ok {
		return a
	}
	return adviceByTier[models.RecommendationNormal]
}

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "%s\n%s\n%s\n", rule, title, rule)
}

// RenderBanner writes the run header.
func RenderBanner(w io.Writer, title string) error {
	var b strings.Builder
	section(&b, title)
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderSummary writes the weather and recommendation sections.
func RenderSummary(w io.Writer, rec models.WeatherRecord) error {
	var b strings.Builder
	b.WriteString("\n")
	section(&b, "WEATHER SUMMARY")
	fmt.Fprintf(&b, "Location: %s\n", rec.Location)
	fmt.Fprintf(&b, "Updated: %s\n", rec.RetrievedAt)
	fmt.Fprintf(&b, "Source: %s\n", rec.Source)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Temperature: %dC (Min: %dC | Max: %dC)\n",
		rec.CurrentTemperatureC, rec.MinTemperatureC, rec.MaxTemperatureC)
	fmt.Fprintf(&b, "Relative humidity: %d%%\n", rec.RelativeHumidityPct)
	fmt.Fprintf(&b, "Condition: %s\n", rec.ConditionDescription)
	fmt.Fprintf(&b, "Precipitation: %.1f mm\n", rec.PrecipitationMM)
	fmt.Fprintf(&b, "Rain probability: %d%%\n", rec.RainProbabilityPct)
	fmt.Fprintf(&b, "Wind: %d km/h\n", rec.WindSpeedKmh)
	b.WriteString("\n")

	section(&b, "IRRIGATION RECOMMENDATION")
	a := adviceFor(rec.IrrigationRecommendation)
	fmt.Fprintf(&b, "%s %s: %s\n", a.marker, rec.IrrigationRecommendation, rec.RecommendationReason)
	fmt.Fprintf(&b, "   Suggestion: %s\n", a.suggestion)
	fmt.Fprintf(&b, "%s\n", rule)

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderEmbeddedSnippet writes the constants block for manual transcription
// into the controller sketch. Output is pure ASCII.
func RenderEmbeddedSnippet(w io.Writer, rec models.WeatherRecord) error {
	var b strings.Builder
	b.WriteString("\n")
	section(&b, "CODE TO COPY INTO THE ESP32 (Arduino)")
	b.WriteString("// Weather data fetched by farmweather\n")
	fmt.Fprintf(&b, "// Last update: %s\n", rec.RetrievedAt)
	fmt.Fprintf(&b, "// Source: %s\n", rec.Source)
	fmt.Fprintf(&b, "// Location: %s\n", asciiFold(rec.Location))
	b.WriteString("\n")
	fmt.Fprintf(&b, "#define RAIN_PROBABILITY %d  // %%\n", rec.RainProbabilityPct)
	fmt.Fprintf(&b, "#define PRECIPITATION_MM %.1f      // mm\n", rec.PrecipitationMM)
	fmt.Fprintf(&b, "#define CURRENT_TEMP %d            // C\n", rec.CurrentTemperatureC)
	fmt.Fprintf(&b, "#define AIR_HUMIDITY %d            // %%\n", rec.RelativeHumidityPct)
	b.WriteString("\n")

	a := adviceFor(rec.IrrigationRecommendation)
	fmt.Fprintf(&b, "// %s\n", a.comment)
	fmt.Fprintf(&b, "bool %s = %t;\n", a.flag, a.flagValue)
	fmt.Fprintf(&b, "%s\n", rule)

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderFooter writes the closing lines of a run.
func RenderFooter(w io.Writer) error {
	_, err := io.WriteString(w, "\n[OK] Done.\nCopy the constants above into the ESP32 sketch.\n")
	return err
}

// asciiFold strips diacritics ("São" -> "Sao") and replaces whatever is still
// outside ASCII with '?'.
func asciiFold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return '?'
		}
		return r
	}, folded)
}
