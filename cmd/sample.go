package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramanasai/incubator/internal/db"
	"github.com/ramanasai/incubator/internal/utils"
)

var (
	sampleNumber  string
	sampleProduct string
	sampleBrand   string
	sampleSite    string
	sampleLimit   int
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Record and list the samples of a batch",
}

var sampleAddCmd = &cobra.Command{
	Use:   "add <batch>",
	Short: "Record a sample",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		s := &db.Sample{
			BatchID: args[0],
			Number:  sampleNumber,
			Product: sampleProduct,
			Brand:   sampleBrand,
			Site:    sampleSite,
		}
		if err := svc.AddSample(cmd.Context(), s); err != nil {
			return err
		}
		fmt.Printf("Sample %s added to %s\n", short(s.ID), s.BatchID)
		return nil
	},
}

var sampleListCmd = &cobra.Command{
	Use:   "list [batch]",
	Short: "List samples, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		f := db.SampleFilter{Site: sampleSite, Limit: sampleLimit}
		if len(args) == 1 {
			f.BatchID = args[0]
		}
		samples, err := svc.ListSamples(cmd.Context(), f)
		if err != nil {
			return err
		}
		if out, _ := utils.ParseFormat(format); out == utils.FormatJSON {
			b, err := json.MarshalIndent(samples, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		if len(samples) == 0 {
			fmt.Println("No samples")
			return nil
		}
		loc := svc.Location()
		for _, s := range samples {
			fmt.Printf("%s  %-10s %-8s %-20s %-12s %-10s %s\n",
				short(s.ID), s.BatchID, s.Number, s.Product, s.Brand, s.Site,
				s.CreatedAt.In(loc).Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	sampleAddCmd.Flags().StringVar(&sampleNumber, "number", "", "Sample number")
	sampleAddCmd.Flags().StringVar(&sampleProduct, "product", "", "Product")
	sampleAddCmd.Flags().StringVar(&sampleBrand, "brand", "", "Brand")
	sampleAddCmd.Flags().StringVar(&sampleSite, "site", "", "Sampling site")

	sampleListCmd.Flags().StringVar(&sampleSite, "site", "", "Only this site")
	sampleListCmd.Flags().IntVarP(&sampleLimit, "limit", "n", 50, "Max samples")

	sampleCmd.AddCommand(sampleAddCmd, sampleListCmd)
}
