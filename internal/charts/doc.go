// Package charts turns a chart selection into plotted series and renders
// charts, correlation heatmaps and PCA projections to PNG or SVG with
// gonum/plot.
package charts
