package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/georgemunganga/clockhouse-backend/internal/modules/enquiry"
	"github.com/spf13/cobra"
)

func runImportProducts(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.catalog.ImportProducts(cmd.Context(), f)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "imported %d products\n", result.Imported)
	for _, issue := range result.Skipped {
		fmt.Fprintf(out, "  skipped line %d: %s\n", issue.Line, issue.Reason)
	}
	return nil
}

func runExportEnquiries(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	filter := enquiry.Filter{
		Status: enquiry.Status(strings.ToLower(strings.TrimSpace(exportStatus))),
		Search: exportSearch,
	}
	if filter.Status == "all" {
		filter.Status = ""
	}
	if err := a.enquiries.Export(cmd.Context(), w, filter); err != nil {
		return err
	}
	if exportOutput != "" {
		a.logger.Info("enquiries exported", "file", exportOutput)
	}
	return nil
}
