// Package notebook parses Jupyter notebooks (.ipynb) and extracts their
// code cells as a single runnable script.
package notebook
