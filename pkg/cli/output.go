/*
 Licensed to the Apache Software Foundation (ASF) under one
 or more contributor license agreements.  See the NOTICE file
 distributed with this work for additional information
 regarding copyright ownership.  The ASF licenses this file
 to you under the Apache License, Version 2.0 (the
 "License"); you may not use this file except in compliance
 with the License.  You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const (
	TableFormat = "table"
	CSVFormat   = "csv"
)

var noStyle = table.Style{
	Name:   "hadmin",
	Box:    table.StyleBoxDefault,
	Color:  table.ColorOptionsDefault,
	Format: table.FormatOptionsDefault,
	HTML:   table.DefaultHTMLOptions,
	Options: table.Options{
		DrawBorder:      false,
		SeparateColumns: true,
		SeparateFooter:  false,
		SeparateHeader:  true,
		SeparateRows:    false,
	},
	Title: table.TitleOptionsDefault,
}

type outputOptions struct {
	format     string
	hideHeader bool
}

func (o *outputOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.format, "output", TableFormat, "output format: table or csv")
	cmd.Flags().BoolVar(&o.hideHeader, "hide-header", false, "do not print the column names")
}

func (o *outputOptions) render(cmd *cobra.Command, header table.Row, rows []table.Row) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(noStyle)
	if !o.hideHeader {
		tw.AppendHeader(header)
	}
	tw.AppendRows(rows)
	switch o.format {
	case TableFormat:
		tw.Render()
	case CSVFormat:
		tw.RenderCSV()
	default:
		return fmt.Errorf("invalid output format %q", o.format)
	}
	return nil
}
