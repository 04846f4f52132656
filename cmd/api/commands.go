package main

import (
	"github.com/spf13/cobra"
)

var (
	browseCategory string
	browseSearch   string
	browseSort     string
	browsePages    int

	exportStatus string
	exportSearch string
	exportOutput string

	rootCmd = &cobra.Command{
		Use:           "clockhouse",
		Short:         "Clock catalog and enquiry backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe, // cmd_serve.go
	}

	browseCmd = &cobra.Command{
		Use:   "browse",
		Short: "Page through the storefront catalog the way the infinite-scroll view does",
		Args:  cobra.NoArgs,
		RunE:  runBrowse, // cmd_browse.go
	}

	importProductsCmd = &cobra.Command{
		Use:   "import-products [file.csv]",
		Short: "Create products from a CSV with model_number, category, mrp and optional is_active",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportProducts, // cmd_data.go
	}

	exportEnquiriesCmd = &cobra.Command{
		Use:   "export-enquiries",
		Short: "Write enquiries as CSV",
		Args:  cobra.NoArgs,
		RunE:  runExportEnquiries, // cmd_data.go
	}
)

func init() {
	browseCmd.Flags().StringVar(&browseCategory, "category", "", "category id to filter by")
	browseCmd.Flags().StringVarP(&browseSearch, "query", "q", "", "model number search term")
	browseCmd.Flags().StringVar(&browseSort, "sort", "model_number", "model_number, mrp_asc, mrp_desc or created_at")
	browseCmd.Flags().IntVar(&browsePages, "pages", 1, "number of pages to load (0 loads until the end)")

	exportEnquiriesCmd.Flags().StringVar(&exportStatus, "status", "", "only export enquiries with this status")
	exportEnquiriesCmd.Flags().StringVarP(&exportSearch, "query", "q", "", "company, contact or email search term")
	exportEnquiriesCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "file to write (default stdout)")

	rootCmd.AddCommand(serveCmd, browseCmd, importProductsCmd, exportEnquiriesCmd)
}
