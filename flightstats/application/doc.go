// Package application contém os casos de uso do cliente: buscar os voos de um
// RunSet, transformar os registros em tabelas enriquecidas e orquestrar os
// RunSets em um pool limitado.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Orchestrator.Run(ctx, runsets) entrega um domain.Result por RunSet.
package application
