// Package recognize turns camera frames into recognition results.
//
// The Adapter wraps two interchangeable backends, barcode decoding via
// zbarimg and printed-text recognition via tesseract, behind one Recognize
// call. A frame produces zero or one candidates; after a bounded run of
// frames with no usable candidate the adapter reports that manual input is
// required. Backend failures are recoverable and never crash the pipeline.
package recognize
