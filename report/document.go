package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"undervalued-homes/models"
)

// BaseName is the file name stem shared by all artifacts of one report.
const BaseName = "Undervalued_Properties"

// Title is the document heading, e.g. "12 Undervalued Properties in Austin".
func Title(ds *models.ReportDataset) string {
	return fmt.Sprintf("%d Undervalued Properties in %s", len(ds.Records), ds.Region)
}

// Document renders the dataset as a Markdown report.
func Document(ds *models.ReportDataset) string {
	var b strings.Builder
	n := len(ds.Records)
	s := ds.Summary
	region := escape(ds.Region)

	fmt.Fprintf(&b, "# %s\n\n", escape(Title(ds)))
	fmt.Fprintf(&b, "There are %d underpriced properties in the %s area as of %s. "+
		"Use the links provided to go to the listing site to find the listing agent's contact information.\n\n",
		n, region, ds.GeneratedAt.Format("2006-01-02 15:04:05"))

	b.WriteString("| # | STATUS | ADDRESS | PRICE | ADJUSTED PRICE | SQUARE FEET | $/SQUARE FEET | ADJUSTED $/SQUARE FEET | BEDS | BATHS | URL |\n")
	b.WriteString("|---|---|---|---:|---:|---:|---:|---:|---:|---:|---|\n")
	for i, r := range ds.Records {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s | %s | %s | %s | [Listing](%s) |\n",
			i+1, escape(r.Status), escape(r.DisplayAddress),
			money(r.Price), money(r.AdjustedPrice),
			humanize.Commaf(r.SqFt), money(r.PricePerSqFt), money(r.AdjustedPricePerSqFt),
			humanize.Ftoa(r.Beds), humanize.Ftoa(r.Baths), linkTarget(r.ListingURL))
	}
	b.WriteString("\n---\n\n")

	b.WriteString("## Data background\n\n")
	fmt.Fprintf(&b, "Even though there are %d total listings in %s, there are only %d properties in this area "+
		"that have a valid price, area, price per square foot, address, city and zip code. "+
		"All other listings either do not contain valid data or were not included.\n\n",
		s.TotalListings, region, s.TotalHomes)
	adj := adjustmentPercent(ds)
	fmt.Fprintf(&b, "The adjusted price and the adjusted price per square foot are %s%% of the listed values. "+
		"Listed prices do not always reflect actual values, and homes tend to sell closer to %s%% of their listed price.\n\n",
		adj, adj)
	b.WriteString("Searches often return properties from surrounding zip codes as well, " +
		"so this report may contain properties outside the primary search region.\n\n")

	b.WriteString("## Why were these properties chosen over the others?\n\n")
	fmt.Fprintf(&b, "These %d properties were narrowed down from a total of %d. "+
		"They are listed in ascending order of price per square foot and were selected because they fall "+
		"within the lower quartile of the dataset.\n\n", n, s.TotalHomes)

	b.WriteString("## Quick stats\n\n")
	fmt.Fprintf(&b, "- High and low price per square foot: **%s**, **%s**\n", money(s.MaxPricePerSqFt), money(s.MinPricePerSqFt))
	fmt.Fprintf(&b, "- High and low price of valid listings: **%s**, **%s**\n", money(s.MaxPrice), money(s.MinPrice))
	fmt.Fprintf(&b, "- Average price per square foot: **%s**\n", money(s.MeanPricePerSqFt))
	fmt.Fprintf(&b, "- Average price of valid listings: **%s**\n\n", money(s.MeanPrice))
	fmt.Fprintf(&b, "### Total listings in the %s area: %d\n\n", region, s.TotalListings)

	b.WriteString("---\n\n## Backstory\n\n")
	b.WriteString("Price per square foot is a standardized measure that allows apples-to-apples comparison " +
		"of properties with different sizes, styles and locations.\n\n")
	b.WriteString("Tracking it over time reveals whether an area is getting more or less expensive, " +
		"and how a specific property compares to the market around it.\n\n")
	b.WriteString("The same metric helps sellers set a listing price and landlords set rent, " +
		"so it is useful well beyond buying.\n\n")

	b.WriteString("## Complete Data Set\n\n")
	fmt.Fprintf(&b, "The complete data set of all %d properties with valid data has not been included "+
		"in order to keep reports short and focused.\n", s.TotalHomes)

	return b.String()
}

func adjustmentPercent(ds *models.ReportDataset) string {
	if ds.PriceAdjustment <= 0 {
		return "90"
	}
	return humanize.FtoaWithDigits(ds.PriceAdjustment*100, 2)
}

// money formats f as "$1,234.5" with at most two decimals.
func money(f float64) string {
	return "$" + humanize.CommafWithDigits(f, 2)
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	`|`, `\|`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	`[`, `\[`,
	`]`, `\]`,
	`<`, `\<`,
	"\n", " ",
)

func escape(s string) string {
	return mdEscaper.Replace(s)
}

// linkTarget makes a URL safe inside a Markdown link destination.
func linkTarget(u string) string {
	return strings.NewReplacer(" ", "%20", "(", "%28", ")", "%29", "|", "%7C").Replace(u)
}
