// Package domain define os tipos e contratos do cliente de status de voos.
//
// Este pacote não depende de net/http nem de implementações concretas:
// registros decodificados da API (voos, aeroportos, equipamentos), a unidade
// de trabalho RunSet, o resultado por unidade e as interfaces que a camada
// application consome (Limiter, Caller, SlotPool, StatsStore, TableWriter).
package domain
