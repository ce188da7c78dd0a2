// Package xdf parses tuning-definition documents into an element catalog.
//
// A definition document (TunerPro XDF dialect) names the data elements stored in a
// firmware image and tells how to decode them. Three kinds of element exist:
//
//   - Constants: one scalar value at an address, with a data type and a scaling formula
//   - Flags: one bit of one byte
//   - Tables: a rows x cols grid of scalars stored row-major, with optional axes
//
// # Document Layout
//
//	<XDFFORMAT version="1.60">
//	  <XDFHEADER>
//	    <deftitle>Example</deftitle>
//	    <BASEOFFSET offset="0" subtract="0"/>
//	    <DEFAULTS datasizeinbits="8" lsbfirst="0" signed="0"/>
//	    <CATEGORY index="0x0" name="Fuel"/>
//	  </XDFHEADER>
//	  <XDFCONSTANT>
//	    <title>Rev Limit</title>
//	    <CATEGORYMEM index="0" category="1"/>
//	    <EMBEDDEDDATA mmedaddress="0x10" mmedelementsizebits="8"/>
//	    <MATH equation="X*25"/>
//	  </XDFCONSTANT>
//	</XDFFORMAT>
//
// CATEGORYMEM category numbers are one-based references to the header CATEGORY index.
// Addresses accept 0x-prefixed hexadecimal or decimal literals.
//
// # Usage
//
//	cat, err := xdf.Load("ecu.xdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c, f, t := cat.Counts()
//	fmt.Printf("%d constants, %d flags, %d tables\n", c, f, t)
//
// Parsing never touches the firmware image. Resolved values are filled in later by
// the resolve package.
package xdf
