// Package diagram extracts a structural model from PlantUML class diagram
// text.
//
// Extraction is a tolerant line scanner, not a PlantUML parser. Lines that
// declare a class or interface contribute an entity name; lines of the form
// "Left <arrow> Right" contribute an association whose arrow token is kept
// verbatim. Anything else is ignored. Input order is preserved and nothing is
// deduplicated.
package diagram
