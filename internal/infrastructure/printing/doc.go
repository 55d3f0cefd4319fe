// Package printing renders order receipts.
//
// Receipts are built from an html/template and, when PDF output is enabled,
// printed to PDF through a headless Chrome driven by chromedp. With PDF
// disabled the HTML document itself is returned.
package printing
