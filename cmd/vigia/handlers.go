package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vigia-platform/vigia/internal/analyzer"
	"github.com/vigia-platform/vigia/internal/core"
	"github.com/vigia-platform/vigia/internal/dataset"
	"github.com/vigia-platform/vigia/internal/ingest"
	"github.com/vigia-platform/vigia/internal/knowledge"
	"github.com/vigia-platform/vigia/internal/metrics"
	"github.com/vigia-platform/vigia/internal/report"
	"github.com/vigia-platform/vigia/internal/session"
	"github.com/vigia-platform/vigia/internal/storage"
	"github.com/vigia-platform/vigia/pkg/logger"
)

// errStatus maps the error taxonomy to HTTP codes: schema and sample-size
// problems are the caller's data (422), everything else is ours (500).
func errStatus(err error) int {
	switch {
	case errors.Is(err, ingest.ErrMissingSheet),
		errors.Is(err, ingest.ErrMissingColumn),
		errors.Is(err, ingest.ErrNoValidRows),
		errors.Is(err, analyzer.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(errStatus(err), gin.H{"error": err.Error()})
}

// parseFilter reads the shared filter query params. Timestamps accept the
// same permissive formats as the workbook cleaner.
func parseFilter(c *gin.Context) (dataset.Filter, error) {
	var f dataset.Filter
	if raw := c.Query("start"); raw != "" {
		t := ingest.ParseTimestamp(raw)
		if t.IsZero() {
			return f, fmt.Errorf("invalid start timestamp: %q", raw)
		}
		f.Start = t
	}
	if raw := c.Query("end"); raw != "" {
		t := ingest.ParseTimestamp(raw)
		if t.IsZero() {
			return f, fmt.Errorf("invalid end timestamp: %q", raw)
		}
		f.End = t
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
		return f, fmt.Errorf("end precedes start")
	}
	f.Fleets = c.QueryArray("fleet")
	f.Equipment = c.QueryArray("equipment")
	f.Systems = c.QueryArray("system")
	f.Assemblies = c.QueryArray("assembly")
	f.Items = c.QueryArray("item")
	return f, nil
}

// filtered resolves the active dataset and applies the request filter. A
// missing dataset or a bad filter aborts the request.
func filtered(c *gin.Context, holder *session.Holder) (*dataset.Dataset, dataset.Filter, bool) {
	ds, ok := holder.Dataset()
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "no dataset loaded, upload a workbook first"})
		return nil, dataset.Filter{}, false
	}
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, dataset.Filter{}, false
	}
	return ds.Apply(f), f, true
}

func uploadHandler(holder *session.Holder, store storage.Store, config *core.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, config.Server.MaxUploadBytes)

		fileHeader, err := c.FormFile("file")
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer file.Close()

		failuresSheet, indicatorsSheet, err := ingest.ReadWorkbook(file)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
			abortWithError(c, err)
			return
		}
		failures, cleanReport, err := ingest.CleanFailures(failuresSheet)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
			abortWithError(c, err)
			return
		}
		indicators, missing, err := ingest.CleanIndicators(indicatorsSheet)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
			abortWithError(c, err)
			return
		}

		holder.Replace(dataset.New(failures, indicators), cleanReport, missing, fileHeader.Filename)
		metrics.UploadsTotal.WithLabelValues("accepted").Inc()
		metrics.RowsDroppedTotal.Add(float64(cleanReport.RowsDropped))

		recordRun(store, &storage.RunRecord{
			Kind:        storage.RunUpload,
			Filename:    fileHeader.Filename,
			RowsKept:    cleanReport.RowsKept,
			RowsDropped: cleanReport.RowsDropped,
			DurationMS:  time.Since(start).Milliseconds(),
		})

		logger.Info("Workbook loaded",
			zap.String("filename", fileHeader.Filename),
			zap.Int("rows_kept", cleanReport.RowsKept),
			zap.Int("rows_dropped", cleanReport.RowsDropped),
			zap.Int("indicators", len(indicators)),
		)
		c.JSON(http.StatusOK, gin.H{
			"clean_report":              cleanReport,
			"indicators":                len(indicators),
			"missing_indicator_columns": missing,
		})
	}
}

// recordRun persists an audit entry. Failures are logged and swallowed so
// the request never depends on the store.
func recordRun(store storage.Store, rec *storage.RunRecord) {
	if store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.SaveRun(ctx, rec); err != nil {
		logger.Warn("Run history write failed", zap.Error(err))
	}
}

func hierarchyHandler(holder *session.Holder) gin.HandlerFunc {
	return func(c *gin.Context) {
		level, err := analyzer.ParseLevel(c.DefaultQuery("level", "system"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ds, _, ok := filtered(c, holder)
		if !ok {
			return
		}
		timer := time.Now()
		rows := analyzer.HierarchyKPIs(ds.Failures, level)
		metrics.AnalysisDuration.WithLabelValues("hierarchy").Observe(time.Since(timer).Seconds())
		c.JSON(http.StatusOK, gin.H{"level": level, "rows": rows, "count": len(rows)})
	}
}

func paretoHandler(holder *session.Holder) gin.HandlerFunc {
	return func(c *gin.Context) {
		level, err := analyzer.ParseLevel(c.DefaultQuery("level", "item"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ds, _, ok := filtered(c, holder)
		if !ok {
			return
		}
		rows := analyzer.Pareto(ds.Failures, level)
		c.JSON(http.StatusOK, gin.H{"level": level, "rows": rows, "count": len(rows)})
	}
}

func equipmentHandler(holder *session.Holder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, f, ok := filtered(c, holder)
		if !ok {
			return
		}
		rows := analyzer.EquipmentComparison(ds.Failures, f.WindowHours(ds))
		c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
	}
}

func fleetHandler(holder *session.Holder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, f, ok := filtered(c, holder)
		if !ok {
			return
		}
		rows := analyzer.FleetComparison(ds.Failures, f.WindowHours(ds))
		c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
	}
}

func temporalHandler(holder *session.Holder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, _, ok := filtered(c, holder)
		if !ok {
			return
		}
		rows := analyzer.DailyDowntime(ds.Failures)
		c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
	}
}

func heatmapHandler(holder *session.Holder) gin.HandlerFunc {
	return func(c *gin.Context) {
		mode := c.DefaultQuery("mode", "weekday_month")
		ds, _, ok := filtered(c, holder)
		if !ok {
			return
		}
		var cells []analyzer.HeatmapCell
		switch mode {
		case "weekday_month":
			cells = analyzer.HeatmapWeekdayMonth(ds.Failures)
		case "hour_weekday":
			cells = analyzer.HeatmapHourWeekday(ds.Failures)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be weekday_month or hour_weekday"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"mode": mode, "cells": cells})
	}
}

func indicatorsHandler(holder *session.Holder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, _, ok := filtered(c, holder)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"summary": analyzer.SummarizeIndicators(ds.LatestIndicators()),
		})
	}
}

func reliabilityHandler(holder *session.Holder, config *core.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, f, ok := filtered(c, holder)
		if !ok {
			return
		}
		timer := time.Now()
		rows := analyzer.ItemReliability(
			ds.Failures, f.WindowHours(ds), f.ReferenceTime(), config.Analyzer.RiskThreshold)
		metrics.AnalysisDuration.WithLabelValues("reliability").Observe(time.Since(timer).Seconds())
		c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
	}
}

func riskHandler(holder *session.Holder, config *core.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, f, ok := filtered(c, holder)
		if !ok {
			return
		}
		all := analyzer.ItemReliability(
			ds.Failures, f.WindowHours(ds), f.ReferenceTime(), config.Analyzer.RiskThreshold)
		var high []analyzer.ReliabilityProfile
		for _, row := range all {
			if row.Risk == analyzer.RiskHigh {
				high = append(high, row)
			}
		}
		c.JSON(http.StatusOK, gin.H{"rows": high, "count": len(high)})
	}
}

func weibullHandler(config *core.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, config.Server.MaxUploadBytes)

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer file.Close()

		samples, err := ingest.ReadInterFailureTimes(file)
		if err != nil {
			abortWithError(c, err)
			return
		}
		timer := time.Now()
		fit, err := analyzer.FitWeibull(
			samples, config.Analyzer.WeibullCurvePoints, config.Analyzer.WeibullCurveSpan)
		if err != nil {
			abortWithError(c, err)
			return
		}
		metrics.AnalysisDuration.WithLabelValues("weibull").Observe(time.Since(timer).Seconds())
		c.JSON(http.StatusOK, fit)
	}
}

func anomaliesHandler(holder *session.Holder, config *core.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, _, ok := filtered(c, holder)
		if !ok {
			return
		}
		timer := time.Now()
		marks, err := analyzer.DetectAnomalies(
			ds.Failures, config.Analyzer.Contamination, config.Analyzer.Seed)
		if err != nil {
			abortWithError(c, err)
			return
		}
		metrics.AnalysisDuration.WithLabelValues("anomaly").Observe(time.Since(timer).Seconds())

		var flagged int
		for _, m := range marks {
			if m.Anomalous {
				flagged++
			}
		}
		c.JSON(http.StatusOK, gin.H{"rows": marks, "count": len(marks), "flagged": flagged})
	}
}

func badActorsHandler(holder *session.Holder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, f, ok := filtered(c, holder)
		if !ok {
			return
		}
		timer := time.Now()
		rows := analyzer.BadActors(ds.Failures, f.WindowHours(ds))
		metrics.AnalysisDuration.WithLabelValues("criticality").Observe(time.Since(timer).Seconds())
		c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
	}
}

func causesHandler(holder *session.Holder, matcher *knowledge.Matcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, _, ok := filtered(c, holder)
		if !ok {
			return
		}
		rows := analyzer.TopCauses(ds.Failures, 5, matcher)
		c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
	}
}

func mcsHandler(holder *session.Holder, matcher *knowledge.Matcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, _, ok := filtered(c, holder)
		if !ok {
			return
		}
		rows := analyzer.MCSTable(ds.Failures, matcher, 10)
		c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
	}
}

func availabilityHandler(holder *session.Holder, config *core.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, f, ok := filtered(c, holder)
		if !ok {
			return
		}
		target := config.Analyzer.TargetAvailability
		if raw := c.Query("target"); raw != "" {
			if _, err := fmt.Sscanf(raw, "%f", &target); err != nil || target < 0 || target > 100 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "target must be a percentage between 0 and 100"})
				return
			}
		}
		rows := analyzer.Availability(ds.Failures, ds.LatestIndicators(), f.WindowHours(ds), target)
		c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows), "target": target})
	}
}

func reportHandler(holder *session.Holder, matcher *knowledge.Matcher, store storage.Store, config *core.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ds, f, ok := filtered(c, holder)
		if !ok {
			return
		}
		data := report.Assemble(c.Request.Context(), ds, matcher, report.Options{
			WindowHours:        f.WindowHours(ds),
			Ref:                f.ReferenceTime(),
			RiskThreshold:      config.Analyzer.RiskThreshold,
			ImpactMediumHours:  config.Analyzer.ImpactMediumHours,
			ImpactHighHours:    config.Analyzer.ImpactHighHours,
			TargetAvailability: config.Analyzer.TargetAvailability,
		})
		pdfBytes, err := report.RenderPDF(data)
		if err != nil {
			metrics.ReportsTotal.WithLabelValues("failed").Inc()
			abortWithError(c, err)
			return
		}
		metrics.ReportsTotal.WithLabelValues("generated").Inc()

		recordRun(store, &storage.RunRecord{
			Kind:       storage.RunReport,
			Filename:   fmt.Sprintf("vigia-report-%s.pdf", start.Format("20060102-150405")),
			RowsKept:   data.Events,
			DurationMS: time.Since(start).Milliseconds(),
		})

		c.Header("Content-Disposition",
			fmt.Sprintf("attachment; filename=vigia-report-%s.pdf", start.Format("20060102-150405")))
		c.Data(http.StatusOK, "application/pdf", pdfBytes)
	}
}

func runsHandler(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "run history is disabled"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		runs, err := store.RecentRuns(ctx, 20)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
	}
}
