// Command contrastcurve measures contrast arrival, peak and uptake gradient
// in a region of interest of a perfusion image series.
package main

func main() {
	Execute()
}
